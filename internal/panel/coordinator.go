package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// maxConcurrency caps the number of judges evaluating at once so a large
// panel cannot exhaust provider connections.
const maxConcurrency = 16

// Coordinator fans a prompt out to its registered evaluators, collects
// their verdicts, and joins them into a combined report. A coordinator is
// built for one evaluation call and discarded.
//
// The run is a full barrier: every evaluator finishes before Run returns,
// a failing judge does not cancel its siblings, and any failure fails the
// whole evaluation with the first error observed.
type Coordinator struct {
	evaluators []*Evaluator

	mu       sync.Mutex
	verdicts []domain.Verdict
}

var _ NotificationSink = (*Coordinator)(nil)

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Register adds an evaluator to the panel and binds this coordinator as its
// event sink.
func (c *Coordinator) Register(e *Evaluator) {
	e.Bind(c)
	c.evaluators = append(c.evaluators, e)
}

// Run evaluates the prompt on every registered evaluator concurrently.
// It always waits for all evaluators; the returned error is the first one
// any evaluator produced. Partial verdicts are discarded by the caller on
// error, never returned as a report.
func (c *Coordinator) Run(ctx context.Context, prompt string) error {
	// A plain errgroup (not WithContext) keeps one judge's failure from
	// canceling the others; the barrier must be full either way.
	var g errgroup.Group
	g.SetLimit(maxConcurrency)

	for _, e := range c.evaluators {
		g.Go(func() error {
			if err := e.Run(ctx, prompt); err != nil {
				return fmt.Errorf("judge %q: %w", e.JudgeID(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Notify accepts an event from an evaluator. Verdict-bearing events are
// recorded in arrival order; anything else is ignored.
func (c *Coordinator) Notify(event domain.Event) {
	switch ev := event.(type) {
	case domain.EvaluationDone:
		c.mu.Lock()
		c.verdicts = append(c.verdicts, ev.Verdict())
		c.mu.Unlock()
	default:
		// Unrecognized events are dropped rather than treated as errors.
	}
}

// Verdicts returns the collected verdicts in completion order.
func (c *Coordinator) Verdicts() []domain.Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Verdict, len(c.verdicts))
	copy(out, c.verdicts)
	return out
}

// Report joins the collected verdicts into the combined report, one
// "name => result" line per verdict in completion order. With no verdicts
// it returns the empty-report sentinel.
func (c *Coordinator) Report() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.verdicts) == 0 {
		return domain.EmptyReportSentinel
	}

	lines := make([]string, 0, len(c.verdicts))
	for _, v := range c.verdicts {
		lines = append(lines, fmt.Sprintf("%s => %s", v.JudgeName, v.Result))
	}
	return strings.Join(lines, "\n")
}
