package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while loading or evaluating specs.
var (
	// ErrInvalidMetaprompt indicates a judge's instruction payload is not
	// parseable structured data.
	ErrInvalidMetaprompt = errors.New("invalid metaprompt")

	// ErrEmptyPanelID indicates a panel was loaded without an identifier.
	ErrEmptyPanelID = errors.New("panel id cannot be empty")
)

// ConfigError represents a construction-time configuration failure on a
// judge spec. It is fatal to that judge's evaluation and is never caught
// inside the core.
type ConfigError struct {
	// JudgeID identifies the misconfigured judge.
	JudgeID string

	// Field names the spec field that failed to parse or validate.
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: judge=%s, field=%s, err=%v", e.JudgeID, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(judgeID, field string, err error) *ConfigError {
	return &ConfigError{JudgeID: judgeID, Field: field, Err: err}
}
