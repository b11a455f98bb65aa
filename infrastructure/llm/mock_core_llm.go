package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM provides a configurable mock implementation of CoreLLM for
// testing. It allows precise control over response behavior, timing, and
// error conditions, including scripted multi-round tool conversations.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response configuration.
	Response      ChatResponse
	Error         error
	Model         string
	ResponseDelay time.Duration

	// Script, when non-empty, returns responses in order; once exhausted
	// the final entry repeats. Lets the tool loop be driven round by round.
	Script []ChatResponse

	// FailUntilAttempt fails the first N calls, then succeeds.
	FailUntilAttempt int

	// Tracking.
	CallCount   int
	LastRequest ChatRequest
	LastOpts    map[string]any
	Requests    []ChatRequest
}

// NewMockCoreLLM creates a new mock CoreLLM with default successful behavior.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response: ChatResponse{
			Message:   ChatMessage{Role: RoleAssistant, Content: "test response"},
			TokensIn:  10,
			TokensOut: 20,
		},
		Model: "test-model",
	}
}

// DoRequest implements the CoreLLM interface with configurable behavior.
func (m *MockCoreLLM) DoRequest(ctx context.Context, req ChatRequest, opts map[string]any) (ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = req
	m.LastOpts = opts
	m.Requests = append(m.Requests, req)

	if m.ResponseDelay > 0 {
		m.mu.Unlock()
		select {
		case <-time.After(m.ResponseDelay):
			m.mu.Lock()
		case <-ctx.Done():
			m.mu.Lock()
			return ChatResponse{}, ctx.Err()
		}
	}

	if m.FailUntilAttempt > 0 && m.CallCount <= m.FailUntilAttempt {
		if m.Error != nil {
			return ChatResponse{}, m.Error
		}
		return ChatResponse{}, &testError{message: "simulated failure"}
	}

	if m.Error != nil {
		return ChatResponse{}, m.Error
	}

	if len(m.Script) > 0 {
		idx := m.CallCount - 1
		if idx >= len(m.Script) {
			idx = len(m.Script) - 1
		}
		return m.Script[idx], nil
	}

	return m.Response, nil
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// GetCallCount returns the number of times DoRequest was called.
func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// testError provides a simple error type for testing.
type testError struct {
	message string
}

func (e *testError) Error() string { return e.message }
