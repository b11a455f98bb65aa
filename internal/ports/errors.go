package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors surfaced across the port boundaries.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrRateLimited indicates the upstream service rate limited the call.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates the upstream service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrAuthenticationFailed indicates that authentication with the
	// upstream service failed.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// UpstreamError represents a failed call to the LLM capability.
// The core does not retry these; they propagate to the caller of the
// evaluation intact.
type UpstreamError struct {
	// Model is the identifier of the model the call targeted.
	Model string

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error.
	Err error

	// RetryAfter indicates how long to wait before retrying, when the
	// provider supplied one.
	RetryAfter *time.Duration
}

// Error implements the error interface for UpstreamError.
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream error: model=%s, operation=%s, err=%v", e.Model, e.Operation, e.Err)
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error { return e.Err }

// IsRetryable returns true when the failure is transient and a caller
// wrapping the core with its own retry policy could reasonably try again.
func (e *UpstreamError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrServiceUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewUpstreamError creates a new UpstreamError with the given details.
func NewUpstreamError(model, operation string, err error) *UpstreamError {
	return &UpstreamError{Model: model, Operation: operation, Err: err}
}

// StoreError represents a failed document store operation.
type StoreError struct {
	// Collection names the document collection involved.
	Collection string

	// Key is the document id involved in the failed operation.
	Key string

	// Operation is the name of the store operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: collection=%s, operation=%s, key=%s, err=%v",
		e.Collection, e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a new StoreError with the given details.
func NewStoreError(collection, key, operation string, err error) *StoreError {
	return &StoreError{Collection: collection, Key: key, Operation: operation, Err: err}
}
