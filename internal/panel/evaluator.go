// Package panel implements the core evaluation pipeline: a panel of judges
// fans out over one prompt, each judge produces a verdict through its own
// LLM client, and a coordinator joins the verdicts into a combined report.
//
// The pieces compose per evaluation call. The orchestrator builds a fresh
// coordinator and a fresh evaluator per judge, runs them to the full
// barrier, and renders the report. Nothing here is reused across calls, so
// no state leaks between evaluations.
package panel

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// NotificationSink receives events emitted by evaluators.
// Implementations must tolerate concurrent calls and events they do not
// recognize.
type NotificationSink interface {
	Notify(event domain.Event)
}

// Evaluator runs a single judge against a prompt and reports the outcome to
// its sink. An evaluator is built for one evaluation call and discarded.
type Evaluator struct {
	spec     domain.JudgeSpec
	client   ports.ChatClient
	settings map[string]any
	sink     NotificationSink
}

// NewEvaluator creates an evaluator for one judge. The instruction payload
// is decoded here so a structurally broken metaprompt fails the evaluation
// before any LLM call is made.
func NewEvaluator(spec domain.JudgeSpec, client ports.ChatClient, settings map[string]any) (*Evaluator, error) {
	if _, err := spec.ParseMetaprompt(); err != nil {
		return nil, err
	}
	return &Evaluator{spec: spec, client: client, settings: settings}, nil
}

// Bind attaches the sink that receives this evaluator's events.
// An unbound evaluator still runs; its events are silently dropped.
func (e *Evaluator) Bind(sink NotificationSink) { e.sink = sink }

// JudgeID returns the id of the judge this evaluator runs.
func (e *Evaluator) JudgeID() string { return e.spec.ID }

// Run invokes the judge's model against the prompt and emits an
// EvaluationDone event carrying the verdict. Tool traffic in the response
// is surfaced as ToolInvoked events and excluded from the verdict text.
func (e *Evaluator) Run(ctx context.Context, prompt string) error {
	instruction, err := e.spec.Instruction()
	if err != nil {
		return err
	}

	msgs, err := e.client.Invoke(ctx, instruction, prompt, e.settings)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		if m.Kind == domain.MessageToolCall {
			e.notify(domain.ToolInvoked{JudgeID: e.spec.ID, ToolName: m.ToolName})
		}
	}

	e.notify(domain.EvaluationDone{
		JudgeID:   e.spec.ID,
		JudgeName: e.spec.Name,
		Result:    renderResult(msgs),
	})
	return nil
}

// notify forwards an event to the bound sink, dropping it when unbound.
func (e *Evaluator) notify(event domain.Event) {
	if e.sink == nil {
		return
	}
	e.sink.Notify(event)
}

// renderResult assembles a verdict's text from the model's message
// sequence: tool traffic is discarded, each text message is normalized and
// trimmed, and the remainder is newline-joined. A run that produced no
// visible text yields the no-output sentinel.
func renderResult(msgs []domain.Message) string {
	var parts []string
	for _, m := range msgs {
		if !m.IsText() {
			continue
		}
		text := strings.TrimSpace(norm.NFC.String(m.Content))
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return domain.NoOutputSentinel
	}
	return strings.Join(parts, "\n")
}
