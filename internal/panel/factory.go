package panel

import (
	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// ClientProvider resolves LLM clients and execution settings by model
// identifier. The llm.Registry satisfies this interface; tests substitute
// stub providers.
type ClientProvider interface {
	// ClientForModel returns the chat client serving the given model.
	ClientForModel(model string) (ports.ChatClient, error)

	// SettingsForModel returns the request options registered for the
	// model, falling back to the default entry. Nil means provider
	// defaults.
	SettingsForModel(model string) map[string]any
}

// Factory builds the per-call evaluator set for a panel.
type Factory struct {
	provider ClientProvider
}

// NewFactory creates an evaluator factory backed by the given provider.
func NewFactory(provider ClientProvider) *Factory {
	return &Factory{provider: provider}
}

// Build creates one evaluator per judge in the panel, resolving each
// judge's client and settings by its model identifier. Any judge that
// cannot be built fails the whole panel; evaluation is all-or-nothing.
func (f *Factory) Build(spec domain.PanelSpec) ([]*Evaluator, error) {
	evaluators := make([]*Evaluator, 0, len(spec.Judges))
	for _, judge := range spec.Judges {
		client, err := f.provider.ClientForModel(judge.Model)
		if err != nil {
			return nil, domain.NewConfigError(judge.ID, "model", err)
		}

		evaluator, err := NewEvaluator(judge, client, f.provider.SettingsForModel(judge.Model))
		if err != nil {
			return nil, err
		}
		evaluators = append(evaluators, evaluator)
	}
	return evaluators, nil
}
