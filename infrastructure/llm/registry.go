package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ahrav/go-tribunal/internal/ports"
)

// DefaultSettingsKey is the settings entry used when no entry exists for a
// judge's model identifier.
const DefaultSettingsKey = "default"

// Registry provides multi-provider management for chat clients.
// It enables centralized configuration, lazy client construction, and
// per-model request settings with inheritance from a default entry.
type Registry struct {
	// providers maps provider names to their configuration.
	providers map[string]ProviderConfig
	// clients maps "provider/model" keys to cached clients.
	clients map[string]ports.ChatClient
	// settings maps model identifiers to request options applied when a
	// judge configured with that model is invoked.
	settings map[string]map[string]any
	// defaultProvider is the fallback when a model identifier cannot be
	// routed to a provider by prefix.
	defaultProvider string
	// defaultMiddleware is applied to all providers unless overridden.
	defaultMiddleware []Middleware
	// defaultTimeout sets the request timeout for all providers.
	defaultTimeout time.Duration
	// tools is shared by every client the registry constructs.
	tools *ToolRegistry

	mu sync.RWMutex
}

// ProviderConfig holds provider-specific configuration, overriding registry
// defaults for individual providers.
type ProviderConfig struct {
	// Type specifies the provider implementation (openai, anthropic, google).
	Type string
	// EnvVar names the environment variable holding the API key.
	EnvVar string
	// DefaultModel is used when a spec names only the provider.
	DefaultModel string
	// ModelPrefixes route bare model identifiers to this provider.
	ModelPrefixes []string
	// BaseURL overrides the default API endpoint.
	BaseURL string
	// Middleware is provider-specific middleware, applied after defaults.
	Middleware []Middleware
}

// RegistryConfig holds configuration for the provider registry.
type RegistryConfig struct {
	// Providers defines the available providers and their configurations.
	Providers map[string]ProviderConfig
	// DefaultProvider receives model identifiers no prefix matches.
	DefaultProvider string
	// DefaultTimeout sets the request timeout for all providers.
	DefaultTimeout time.Duration
	// DefaultMiddleware is applied to all providers.
	DefaultMiddleware []Middleware
	// Tools is the shared tool registry advertised to capable providers.
	Tools *ToolRegistry
	// Settings maps model identifiers to request options. An entry keyed
	// "default" applies to models with no entry of their own.
	Settings map[string]map[string]any
}

// DefaultProviders provides standard provider configurations for common LLM
// services. Applications can use this as a starting point and override
// specific settings.
var DefaultProviders = map[string]ProviderConfig{
	"openai": {
		Type:          "openai",
		EnvVar:        "OPENAI_API_KEY",
		DefaultModel:  OpenAIDefaultModel,
		ModelPrefixes: []string{"gpt-", "o1", "o3", "o4"},
	},
	"anthropic": {
		Type:          "anthropic",
		EnvVar:        "ANTHROPIC_API_KEY",
		DefaultModel:  AnthropicDefaultModel,
		ModelPrefixes: []string{"claude-"},
	},
	"google": {
		Type:          "google",
		EnvVar:        "GOOGLE_API_KEY",
		DefaultModel:  GoogleDefaultModel,
		ModelPrefixes: []string{"gemini-"},
	},
}

// NewRegistry creates a new provider registry.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.DefaultProvider == "" {
		return nil, fmt.Errorf("default provider cannot be empty")
	}
	if _, exists := config.Providers[config.DefaultProvider]; !exists {
		return nil, fmt.Errorf("default provider %q not found in providers configuration", config.DefaultProvider)
	}

	settings := make(map[string]map[string]any, len(config.Settings))
	for model, opts := range config.Settings {
		settings[model] = opts
	}

	return &Registry{
		providers:         config.Providers,
		clients:           make(map[string]ports.ChatClient),
		settings:          settings,
		defaultProvider:   config.DefaultProvider,
		defaultMiddleware: config.DefaultMiddleware,
		defaultTimeout:    config.DefaultTimeout,
		tools:             config.Tools,
	}, nil
}

// ClientForModel returns a client routed by a judge's model identifier.
// Bare identifiers are matched against provider prefixes, so "gpt-4o" routes
// to openai and "claude-3.5-haiku" to anthropic. Identifiers that match no
// prefix go to the default provider. Clients are created lazily and cached.
func (r *Registry) ClientForModel(model string) (ports.ChatClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model identifier cannot be empty")
	}
	return r.GetClient(r.routeModel(model) + "/" + model)
}

// SettingsForModel resolves the request options for a model identifier.
// When no entry exists for the model, the "default" entry is returned; when
// neither exists, the result is nil. The returned map is a copy.
func (r *Registry) SettingsForModel(model string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts, ok := r.settings[model]
	if !ok {
		opts = r.settings[DefaultSettingsKey]
	}
	if opts == nil {
		return nil
	}

	out := make(map[string]any, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	return out
}

// SetSettings replaces the request options for a model identifier.
func (r *Registry) SetSettings(model string, opts map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[model] = opts
}

// GetDefaultClient returns a client for the default provider and its default
// model.
func (r *Registry) GetDefaultClient() (ports.ChatClient, error) {
	providerConfig, exists := r.providers[r.defaultProvider]
	if !exists {
		return nil, fmt.Errorf("default provider %q not found in configuration", r.defaultProvider)
	}
	return r.GetClient(r.defaultProvider + "/" + providerConfig.DefaultModel)
}

// GetClient retrieves a client by provider name or "provider/model" spec.
// The method creates clients lazily on first request and caches them; each
// unique provider/model combination gets its own client instance.
func (r *Registry) GetClient(spec string) (ports.ChatClient, error) {
	if spec == "" {
		return nil, fmt.Errorf("provider specification cannot be empty; use GetDefaultClient() for default provider")
	}

	provider, model := r.parseSpec(spec)
	key := r.buildCacheKey(provider, model)

	r.mu.RLock()
	if client, exists := r.clients[key]; exists {
		r.mu.RUnlock()
		return client, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, exists := r.clients[key]; exists {
		return client, nil
	}

	client, err := r.createClient(provider, model)
	if err != nil {
		return nil, err
	}

	r.clients[key] = client
	return client, nil
}

// RegisterClient registers a pre-built client under a model identifier,
// bypassing provider construction. Useful for tests and custom transports.
func (r *Registry) RegisterClient(model string, client ports.ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[r.buildCacheKey(r.routeModel(model), model)] = client
}

// routeModel finds the provider whose prefixes match a bare model
// identifier, falling back to the default provider.
func (r *Registry) routeModel(model string) string {
	for name, cfg := range r.providers {
		for _, prefix := range cfg.ModelPrefixes {
			if strings.HasPrefix(model, prefix) {
				return name
			}
		}
	}
	return r.defaultProvider
}

// parseSpec extracts provider name and model from a specification string.
// "provider" resolves to the provider's default model; "provider/model"
// names both explicitly.
func (r *Registry) parseSpec(spec string) (provider, model string) {
	parts := strings.SplitN(spec, "/", 2)
	provider = parts[0]

	if len(parts) > 1 {
		model = parts[1]
	} else if providerConfig, ok := r.providers[provider]; ok {
		model = providerConfig.DefaultModel
	}

	return
}

// buildCacheKey creates a consistent cache key from provider and model.
func (r *Registry) buildCacheKey(provider, model string) string {
	if model == "" {
		return provider
	}
	return provider + "/" + model
}

// createClient creates a new client instance for the given provider and
// model, loading the API key from the provider's environment variable.
func (r *Registry) createClient(provider, model string) (ports.ChatClient, error) {
	providerConfig, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	apiKey := os.Getenv(providerConfig.EnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set for provider %q", providerConfig.EnvVar, provider)
	}

	config := ClientConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: providerConfig.BaseURL,
		Timeout: r.defaultTimeout,
		Tools:   r.tools,
	}
	config.Middleware = append([]Middleware{}, r.defaultMiddleware...)
	config.Middleware = append(config.Middleware, providerConfig.Middleware...)

	return NewClient(providerConfig.Type, config)
}
