// Package testutils provides shared fakes for exercising the evaluation
// pipeline without real LLM providers or storage.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// MockChatClient implements ports.ChatClient with deterministic responses
// keyed by substring patterns, matched against the system instruction and
// the prompt. It records every invocation for assertions.
type MockChatClient struct {
	mu sync.Mutex

	// model is the mock model identifier.
	model string
	// scripted holds pattern -> message sequence mappings, checked in
	// registration order.
	scripted []mockResponse
	// fallback is returned when no pattern matches.
	fallback []domain.Message
	// err, when set, fails every invocation.
	err error

	// Calls records each invocation's system and prompt.
	Calls []MockCall
}

// MockCall captures one Invoke invocation.
type MockCall struct {
	System  string
	Prompt  string
	Options map[string]any
}

type mockResponse struct {
	pattern  string
	messages []domain.Message
}

// NewMockChatClient creates a mock client that answers every prompt with a
// single text message.
func NewMockChatClient(model, response string) *MockChatClient {
	return &MockChatClient{
		model:    model,
		fallback: []domain.Message{{Kind: domain.MessageText, Content: response}},
	}
}

// AddResponse registers a message sequence returned when the pattern occurs
// in either the system instruction or the prompt.
func (m *MockChatClient) AddResponse(pattern string, messages ...domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, mockResponse{pattern: pattern, messages: messages})
}

// SetError makes every subsequent invocation fail with err.
func (m *MockChatClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Invoke implements ports.ChatClient.
func (m *MockChatClient) Invoke(ctx context.Context, system, prompt string, options map[string]any) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{System: system, Prompt: prompt, Options: options})

	if m.err != nil {
		return nil, m.err
	}

	for _, r := range m.scripted {
		if strings.Contains(system, r.pattern) || strings.Contains(prompt, r.pattern) {
			return r.messages, nil
		}
	}
	return m.fallback, nil
}

// GetModel returns the mock model identifier.
func (m *MockChatClient) GetModel() string { return m.model }

// CallCount returns the number of invocations so far.
func (m *MockChatClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ ports.ChatClient = (*MockChatClient)(nil)

// MockClientProvider maps model identifiers to pre-built chat clients and
// settings, standing in for the llm registry in pipeline tests.
type MockClientProvider struct {
	// Clients maps model identifiers to clients. The empty key acts as a
	// catch-all.
	Clients map[string]ports.ChatClient
	// Settings maps model identifiers to request options, with "default"
	// as the fallback entry.
	Settings map[string]map[string]any
	// Err, when set, fails every client lookup.
	Err error
}

// ClientForModel implements the provider interface used by the evaluator
// factory.
func (p *MockClientProvider) ClientForModel(model string) (ports.ChatClient, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if c, ok := p.Clients[model]; ok {
		return c, nil
	}
	if c, ok := p.Clients[""]; ok {
		return c, nil
	}
	return nil, ports.ErrNotFound
}

// SettingsForModel resolves settings with the default fallback.
func (p *MockClientProvider) SettingsForModel(model string) map[string]any {
	if s, ok := p.Settings[model]; ok {
		return s
	}
	return p.Settings["default"]
}
