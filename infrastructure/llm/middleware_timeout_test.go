package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutMiddleware_SucceedsWithinTimeout(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 10 * time.Millisecond
	wrapped := TimeoutMiddleware(100 * time.Millisecond)(mock)

	resp, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)

	require.NoError(t, err, "request should succeed within timeout")
	assert.Equal(t, "test response", resp.Message.Content)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestTimeoutMiddleware_FailsWhenExceedingTimeout(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 200 * time.Millisecond
	timeout := 50 * time.Millisecond
	wrapped := TimeoutMiddleware(timeout)(mock)

	start := time.Now()
	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
	duration := time.Since(start)

	require.Error(t, err, "request should timeout")
	assert.True(t, errors.Is(err, context.DeadlineExceeded),
		"error should be deadline exceeded: %v", err)
	assert.Greater(t, duration, timeout)
	assert.Less(t, duration, timeout+100*time.Millisecond)
}

func TestTimeoutMiddleware_RespectsExistingContextTimeout(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 200 * time.Millisecond
	wrapped := TimeoutMiddleware(300 * time.Millisecond)(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := wrapped.DoRequest(ctx, ChatRequest{}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded),
		"shorter caller deadline should win: %v", err)
}

func TestTimeoutMiddleware_PassesThroughModelMethods(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := TimeoutMiddleware(100 * time.Millisecond)(mock)

	assert.Equal(t, "test-model", wrapped.GetModel())

	wrapped.SetModel("new-model")
	assert.Equal(t, "new-model", wrapped.GetModel())
	assert.Equal(t, "new-model", mock.GetModel())
}
