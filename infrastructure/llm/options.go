package llm

import (
	"fmt"
	"net/url"
	"time"
)

// Valid ranges for common LLM parameters, shared across providers.
const (
	// MinTemperature is the minimum allowed value for temperature.
	MinTemperature = 0.0
	// MaxTemperature is the maximum allowed value for temperature.
	// Set to 2.0 to accommodate providers like Gemini.
	MaxTemperature = 2.0
	// MinTopP is the minimum allowed value for Top-P sampling.
	MinTopP = 0.0
	// MaxTopP is the maximum allowed value for Top-P sampling.
	MaxTopP = 1.0
	// DefaultMaxTokens is used when no max_tokens option is supplied.
	DefaultMaxTokens = 1024
	// MinTimeout is the minimum allowed request timeout.
	MinTimeout = 1 * time.Second
	// MaxTimeout is the maximum allowed request timeout.
	MaxTimeout = 10 * time.Minute
)

// RequestOptions is the standardized set of per-request parameters parsed
// from the generic options map.
type RequestOptions struct {
	// MaxTokens caps the number of tokens to generate.
	MaxTokens int
	// Model overrides the provider's configured model for this request.
	Model string
	// Temperature controls output randomness; nil uses the provider
	// default.
	Temperature *float64
	// TopP enables nucleus sampling; nil uses the provider default.
	TopP *float64
	// Extra holds provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates request parameters from an
// options map, falling back to defaults for missing or invalid entries.
// Unrecognized keys are collected into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: extractInt(opts, "max_tokens", DefaultMaxTokens, func(v int) bool { return v > 0 }),
		Model:     extractString(opts, "model", defaultModel),
		Extra:     make(map[string]any),
	}

	if temp := extractFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}
	if topP := extractFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "temperature", "top_p":
			// Standard options, already processed.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// IsValidTemperature checks if the temperature is within [0.0, 2.0].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsValidTopP checks if the top_p value is within [0.0, 1.0].
func IsValidTopP(val float64) bool {
	return val >= MinTopP && val <= MaxTopP
}

// ClampFloat64 constrains a value to the inclusive range [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ValidateBaseURL validates a base URL override. An empty string is valid
// and signifies the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// ValidateTimeout constrains a timeout to the supported range.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

func extractInt(opts map[string]any, key string, defaultVal int, valid func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key].(int)
	if !ok || (valid != nil && !valid(val)) {
		return defaultVal
	}
	return val
}

func extractString(opts map[string]any, key, defaultVal string) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key].(string)
	if !ok || val == "" {
		return defaultVal
	}
	return val
}

func extractFloat64(opts map[string]any, key string, defaultVal float64, valid func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key].(float64)
	if !ok || (valid != nil && !valid(val)) {
		return defaultVal
	}
	return val
}
