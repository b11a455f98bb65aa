// Package application wires configuration and shared capabilities for the
// panel service: environment-driven settings, per-model request options
// loaded from a YAML file, and the default evaluation tools.
package application

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration, populated from environment
// variables.
type Config struct {
	// Port is the HTTP listen port.
	Port int `env:"PORT,default=8080" validate:"min=1,max=65535"`

	// DBPath is the bbolt database file for judge and assembly specs.
	DBPath string `env:"DB_PATH,default=tribunal.db" validate:"required"`

	// DefaultProvider receives model identifiers no provider prefix
	// matches.
	DefaultProvider string `env:"DEFAULT_PROVIDER,default=openai" validate:"oneof=openai anthropic google"`

	// RequestTimeout bounds each individual LLM request.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=60s"`

	// RateLimit is the sustained LLM requests-per-second budget per
	// provider. Zero disables rate limiting.
	RateLimit float64 `env:"RATE_LIMIT,default=0"`

	// RateBurst allows short spikes above RateLimit.
	RateBurst int `env:"RATE_BURST,default=1"`

	// SettingsPath optionally points at a YAML file mapping model
	// identifiers to request options. Empty means provider defaults
	// everywhere.
	SettingsPath string `env:"SETTINGS_PATH"`

	// ShutdownGrace is how long in-flight requests get to finish on
	// shutdown.
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE,default=10s"`
}

var validate = validator.New()

// LoadConfig reads configuration from the environment and validates it.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// modelSettings is the YAML shape of one model's request options.
type modelSettings struct {
	Temperature *float64 `yaml:"temperature" validate:"omitempty,min=0,max=2"`
	TopP        *float64 `yaml:"top_p" validate:"omitempty,min=0,max=1"`
	MaxTokens   *int     `yaml:"max_tokens" validate:"omitempty,min=1"`
}

// LoadModelSettings reads the per-model request options file. The file maps
// model identifiers (or "default") to sampling options:
//
//	default:
//	  temperature: 0.0
//	  max_tokens: 1024
//	gpt-4o-mini:
//	  temperature: 0.7
//
// An empty path returns an empty map.
func LoadModelSettings(path string) (map[string]map[string]any, error) {
	if path == "" {
		return map[string]map[string]any{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var raw map[string]modelSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}

	out := make(map[string]map[string]any, len(raw))
	for model, s := range raw {
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("settings for model %q: %w", model, err)
		}
		opts := make(map[string]any)
		if s.Temperature != nil {
			opts["temperature"] = *s.Temperature
		}
		if s.TopP != nil {
			opts["top_p"] = *s.TopP
		}
		if s.MaxTokens != nil {
			opts["max_tokens"] = *s.MaxTokens
		}
		out[model] = opts
	}
	return out, nil
}
