package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     map[string]any
		validate func(t *testing.T, got RequestOptions)
	}{
		{
			name: "nil options use defaults",
			opts: nil,
			validate: func(t *testing.T, got RequestOptions) {
				assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
				assert.Equal(t, "base-model", got.Model)
				assert.Nil(t, got.Temperature)
				assert.Nil(t, got.TopP)
			},
		},
		{
			name: "standard options parsed",
			opts: map[string]any{
				"max_tokens":  256,
				"model":       "other-model",
				"temperature": 0.7,
				"top_p":       0.9,
			},
			validate: func(t *testing.T, got RequestOptions) {
				assert.Equal(t, 256, got.MaxTokens)
				assert.Equal(t, "other-model", got.Model)
				require.NotNil(t, got.Temperature)
				assert.Equal(t, 0.7, *got.Temperature)
				require.NotNil(t, got.TopP)
				assert.Equal(t, 0.9, *got.TopP)
			},
		},
		{
			name: "invalid values fall back to defaults",
			opts: map[string]any{
				"max_tokens":  -5,
				"temperature": 3.5,
				"top_p":       2.0,
			},
			validate: func(t *testing.T, got RequestOptions) {
				assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
				assert.Nil(t, got.Temperature)
				assert.Nil(t, got.TopP)
			},
		},
		{
			name: "unrecognized keys collected into Extra",
			opts: map[string]any{
				"temperature": 0.2,
				"top_k":       5,
			},
			validate: func(t *testing.T, got RequestOptions) {
				assert.Equal(t, 5, got.Extra["top_k"])
				_, hasTemp := got.Extra["temperature"]
				assert.False(t, hasTemp, "standard keys should not appear in Extra")
			},
		},
		{
			name: "zero temperature is preserved",
			opts: map[string]any{"temperature": 0.0},
			validate: func(t *testing.T, got RequestOptions) {
				require.NotNil(t, got.Temperature)
				assert.Equal(t, 0.0, *got.Temperature)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRequestOptions(tt.opts, "base-model")
			tt.validate(t, got)
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	got, err := ValidateBaseURL("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ValidateBaseURL("https://api.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", got)

	_, err = ValidateBaseURL("ftp://api.example.com")
	require.Error(t, err)

	_, err = ValidateBaseURL("https://")
	require.Error(t, err)
}

func TestValidateTimeout(t *testing.T) {
	assert.Equal(t, MinTimeout, ValidateTimeout(0))
	assert.Equal(t, 30*time.Second, ValidateTimeout(30*time.Second))
	assert.Equal(t, MaxTimeout, ValidateTimeout(time.Hour))
}

func TestClampFloat64(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat64(-1.0, 0.0, 1.0))
	assert.Equal(t, 1.0, ClampFloat64(2.0, 0.0, 1.0))
	assert.Equal(t, 0.5, ClampFloat64(0.5, 0.0, 1.0))
}
