package panel

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// Evaluation is the outcome of running one prompt through a panel.
type Evaluation struct {
	// PanelID identifies the panel that was evaluated.
	PanelID string `json:"panel_id"`

	// Report is the combined verdict report, one line per judge in
	// completion order.
	Report string `json:"report"`

	// Verdicts holds the individual verdicts behind the report.
	Verdicts []domain.Verdict `json:"verdicts"`
}

// Orchestrator is the entry point for panel evaluations. It loads the
// panel spec, assembles a fresh coordinator and evaluator set, runs the
// fan-out to completion, and renders the combined report.
//
// The orchestrator itself is stateless across calls and safe for
// concurrent use.
type Orchestrator struct {
	store   ports.PanelStore
	factory *Factory
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewOrchestrator creates an orchestrator. The metrics collector may be
// nil, in which case no metrics are recorded.
func NewOrchestrator(store ports.PanelStore, provider ClientProvider, metrics ports.MetricsCollector) *Orchestrator {
	return &Orchestrator{
		store:   store,
		factory: NewFactory(provider),
		metrics: metrics,
		tracer:  otel.Tracer("panel.orchestrator"),
	}
}

// Evaluate runs the prompt through the panel with the given id.
// The panel is fetched anew and the coordinator and evaluators are built
// fresh for this call, so concurrent evaluations never share state.
// A missing panel surfaces as ports.ErrNotFound; any judge failure fails
// the whole evaluation and no partial report is returned.
func (o *Orchestrator) Evaluate(ctx context.Context, panelID, prompt string) (Evaluation, error) {
	if panelID == "" {
		return Evaluation{}, domain.ErrEmptyPanelID
	}

	ctx, span := o.tracer.Start(ctx, "panel.evaluate",
		trace.WithAttributes(attribute.String("panel.id", panelID)))
	defer span.End()

	log := clog.FromContext(ctx).With("panel_id", panelID)
	start := time.Now()

	spec, err := o.store.GetPanel(ctx, panelID)
	if err != nil {
		return Evaluation{}, o.fail(ctx, span, "load", start, err)
	}
	span.SetAttributes(attribute.Int("panel.judges", len(spec.Judges)))

	evaluators, err := o.factory.Build(spec)
	if err != nil {
		return Evaluation{}, o.fail(ctx, span, "build", start, err)
	}

	coordinator := NewCoordinator()
	for _, e := range evaluators {
		coordinator.Register(e)
	}

	log.InfoContext(ctx, "starting panel evaluation", "judges", len(evaluators))
	if err := coordinator.Run(ctx, prompt); err != nil {
		return Evaluation{}, o.fail(ctx, span, "run", start, err)
	}

	result := Evaluation{
		PanelID:  panelID,
		Report:   coordinator.Report(),
		Verdicts: coordinator.Verdicts(),
	}

	o.record("success", start)
	log.InfoContext(ctx, "panel evaluation complete",
		"verdicts", len(result.Verdicts), "duration", time.Since(start))
	return result, nil
}

// fail records the failure and annotates the span before returning the
// error unchanged.
func (o *Orchestrator) fail(ctx context.Context, span trace.Span, phase string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.record("error", start)
	clog.FromContext(ctx).ErrorContext(ctx, "panel evaluation failed", "phase", phase, "error", err)
	return err
}

func (o *Orchestrator) record(status string, start time.Time) {
	if o.metrics == nil {
		return
	}
	labels := map[string]string{"status": status}
	o.metrics.RecordCounter("evaluations_total", 1, labels)
	o.metrics.RecordLatency("evaluate", time.Since(start), labels)
}
