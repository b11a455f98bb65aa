package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tribunal/internal/domain"
)

func newTestRegistry(t *testing.T, settings map[string]map[string]any) *Registry {
	t.Helper()
	registry, err := NewRegistry(RegistryConfig{
		Providers:       DefaultProviders,
		DefaultProvider: "openai",
		Settings:        settings,
	})
	require.NoError(t, err)
	return registry
}

func TestNewRegistry_ValidatesDefaultProvider(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{Providers: DefaultProviders})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider cannot be empty")

	_, err = NewRegistry(RegistryConfig{
		Providers:       DefaultProviders,
		DefaultProvider: "missing",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in providers configuration")
}

func TestRegistry_RoutesModelsByPrefix(t *testing.T) {
	registry := newTestRegistry(t, nil)

	tests := []struct {
		model    string
		provider string
	}{
		{"gpt-4o-mini", "openai"},
		{"o3-mini", "openai"},
		{"claude-3.5-haiku", "anthropic"},
		{"gemini-2.0-flash", "google"},
		{"mystery-model", "openai"}, // falls back to the default provider
	}

	for _, tt := range tests {
		assert.Equal(t, tt.provider, registry.routeModel(tt.model),
			"model %q should route to %q", tt.model, tt.provider)
	}
}

func TestRegistry_ClientForModel_RequiresIdentifier(t *testing.T) {
	registry := newTestRegistry(t, nil)
	_, err := registry.ClientForModel("")
	require.Error(t, err)
}

func TestRegistry_ClientForModel_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	registry := newTestRegistry(t, nil)

	_, err := registry.ClientForModel("gpt-4o-mini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestRegistry_ClientForModel_CachesClients(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	registry := newTestRegistry(t, nil)

	first, err := registry.ClientForModel("gpt-4o-mini")
	require.NoError(t, err)
	second, err := registry.ClientForModel("gpt-4o-mini")
	require.NoError(t, err)

	assert.Same(t, first, second, "repeat lookups should hit the cache")
}

func TestRegistry_RegisterClient_OverridesConstruction(t *testing.T) {
	registry := newTestRegistry(t, nil)
	stub := &stubChatClient{model: "gpt-4o-mini"}

	registry.RegisterClient("gpt-4o-mini", stub)

	got, err := registry.ClientForModel("gpt-4o-mini")
	require.NoError(t, err)
	assert.Same(t, stub, got)
}

func TestRegistry_SettingsForModel_FallsBackToDefault(t *testing.T) {
	registry := newTestRegistry(t, map[string]map[string]any{
		"default":     {"temperature": 0.0, "max_tokens": 512},
		"gpt-4o-mini": {"temperature": 0.7},
	})

	exact := registry.SettingsForModel("gpt-4o-mini")
	assert.Equal(t, 0.7, exact["temperature"])

	fallback := registry.SettingsForModel("claude-3.5-haiku")
	assert.Equal(t, 0.0, fallback["temperature"])
	assert.Equal(t, 512, fallback["max_tokens"])
}

func TestRegistry_SettingsForModel_NoEntries(t *testing.T) {
	registry := newTestRegistry(t, nil)
	assert.Nil(t, registry.SettingsForModel("gpt-4o-mini"))
}

func TestRegistry_SettingsForModel_ReturnsCopy(t *testing.T) {
	registry := newTestRegistry(t, map[string]map[string]any{
		"default": {"temperature": 0.5},
	})

	got := registry.SettingsForModel("anything")
	got["temperature"] = 2.0

	again := registry.SettingsForModel("anything")
	assert.Equal(t, 0.5, again["temperature"], "callers must not mutate stored settings")
}

// stubChatClient satisfies ports.ChatClient for registry tests.
type stubChatClient struct{ model string }

func (s *stubChatClient) Invoke(ctx context.Context, system, prompt string, options map[string]any) ([]domain.Message, error) {
	return []domain.Message{{Kind: domain.MessageText, Content: "ok"}}, nil
}

func (s *stubChatClient) GetModel() string { return s.model }
