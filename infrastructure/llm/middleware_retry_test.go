package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryMiddleware_SucceedsFirstAttempt(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	resp, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "test response", resp.Message.Content)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestRetryMiddleware_RetriesTransientFailures(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.FailUntilAttempt = 2
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	resp, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "test response", resp.Message.Content)
	assert.Equal(t, 3, mock.GetCallCount(), "should succeed on third attempt")
}

func TestRetryMiddleware_ExhaustsRetries(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.FailUntilAttempt = 100
	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, mock.GetCallCount())
}

func TestRetryMiddleware_DoesNotRetryBadRequests(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = NewProviderError("openai", ErrorTypeBadRequest, 400, "invalid params", nil)
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, mock.GetCallCount(), "bad requests should fail fast")
}

func TestRetryMiddleware_RetriesRateLimits(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = NewProviderError("openai", ErrorTypeRateLimit, 429, "slow down", nil)
	mock.FailUntilAttempt = 1
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)

	// The mock keeps returning the configured error past FailUntilAttempt,
	// so retries continue until exhausted.
	require.Error(t, err)
	assert.Equal(t, 4, mock.GetCallCount(), "rate limits should be retried")
}

func TestRetryMiddleware_StopsOnContextCancellation(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.FailUntilAttempt = 100
	wrapped := RetryMiddleware(5, 50*time.Millisecond, time.Second)(mock)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := wrapped.DoRequest(ctx, ChatRequest{}, nil)

	require.Error(t, err)
	assert.LessOrEqual(t, mock.GetCallCount(), 2, "should stop retrying once canceled")
}
