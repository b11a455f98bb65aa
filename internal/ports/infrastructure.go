// Package ports defines the interfaces through which the core talks to
// external collaborators: the LLM capability, the document store, and the
// metrics backend. Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// ChatClient is the opaque LLM capability: send a system instruction plus a
// user prompt, receive back a sequence of response messages. Messages may
// include tool traffic when the provider autonomously invokes registered
// tools; callers filter on message kind.
type ChatClient interface {
	// Invoke sends one prompt to the model and returns the full response
	// sequence. The options map carries provider-agnostic settings:
	//   - "temperature": float64
	//   - "max_tokens": int
	//   - "model": string (override the configured model)
	// Implementations handle authentication, timeouts, and retries behind
	// this boundary; the core never retries.
	Invoke(ctx context.Context, system, prompt string, options map[string]any) ([]domain.Message, error)

	// GetModel returns the model identifier served by this client,
	// useful for logging and settings resolution.
	GetModel() string
}

// JudgeStore persists judge specs keyed by id.
type JudgeStore interface {
	// GetJudge returns the judge with the given id, or ErrNotFound.
	GetJudge(ctx context.Context, id string) (domain.JudgeSpec, error)

	// PutJudge creates or replaces a judge spec.
	PutJudge(ctx context.Context, spec domain.JudgeSpec) error

	// DeleteJudge removes a judge spec, returning ErrNotFound when absent.
	DeleteJudge(ctx context.Context, id string) error

	// ListJudges returns all judges, optionally filtered by an
	// approximate name match. An empty filter returns everything.
	ListJudges(ctx context.Context, nameFilter string) ([]domain.JudgeSpec, error)
}

// PanelStore persists panel specs keyed by id.
type PanelStore interface {
	// GetPanel returns the panel with the given id, or ErrNotFound.
	GetPanel(ctx context.Context, id string) (domain.PanelSpec, error)

	// PutPanel creates or replaces a panel spec.
	PutPanel(ctx context.Context, spec domain.PanelSpec) error

	// DeletePanel removes a panel spec, returning ErrNotFound when absent.
	DeletePanel(ctx context.Context, id string) error

	// ListPanels returns all panels, optionally filtered by role label.
	ListPanels(ctx context.Context, roleFilter string) ([]domain.PanelSpec, error)
}

// DocumentStore combines the judge and panel collections behind one handle.
type DocumentStore interface {
	JudgeStore
	PanelStore

	// Close releases the underlying storage.
	Close() error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
