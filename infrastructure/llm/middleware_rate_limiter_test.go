package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimitMiddleware_AllowsWithinLimit(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(100), 10)(mock)

	for i := 0; i < 5; i++ {
		_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, mock.GetCallCount())
}

func TestRateLimitMiddleware_PacesRequestsBeyondBurst(t *testing.T) {
	mock := NewMockCoreLLM()
	// 20 rps with burst 1 means the second request waits roughly 50ms.
	wrapped := RateLimitMiddleware(rate.Limit(20), 1)(mock)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond,
		"requests beyond the burst should be paced")
}

func TestRateLimitMiddleware_RespectsContextCancellation(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(0.1), 1)(mock)

	// Consume the single burst token.
	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = wrapped.DoRequest(ctx, ChatRequest{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, mock.GetCallCount(), "second request should never reach the provider")
}

func TestRateLimitMiddleware_SharedAcrossWrappedClients(t *testing.T) {
	middleware := RateLimitMiddleware(rate.Limit(20), 1)
	mockA := NewMockCoreLLM()
	mockB := NewMockCoreLLM()
	wrappedA := middleware(mockA)
	wrappedB := middleware(mockB)

	start := time.Now()
	_, err := wrappedA.DoRequest(context.Background(), ChatRequest{}, nil)
	require.NoError(t, err)
	_, err = wrappedB.DoRequest(context.Background(), ChatRequest{}, nil)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond,
		"both clients should draw from the same token bucket")
}
