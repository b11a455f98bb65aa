// Package llm provides a unified chat interface over multiple LLM providers
// with built-in support for timeouts, retries, rate limiting, metrics, and
// tracing.
//
// The package abstracts providers (OpenAI, Anthropic, Google) behind a common
// CoreLLM interface while adding cross-cutting concerns through a middleware
// chain. The exported Client additionally runs an automatic tool-invocation
// loop: when a model requests one of the registered tools, the client
// executes it and feeds the result back until the model produces a final
// text answer.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	msgs, err := client.Invoke(ctx, "You are a strict QA judge.", transcript, nil)
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// maxToolRounds bounds the automatic tool-invocation loop so a model that
// keeps requesting tools cannot spin the client forever.
const maxToolRounds = 8

// Chat roles used in provider-agnostic conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one provider-agnostic conversation turn.
type ChatMessage struct {
	// Role is one of RoleUser, RoleAssistant, or RoleTool.
	Role string

	// Content is the turn's text payload. For RoleTool turns it carries
	// the tool's output.
	Content string

	// ToolCalls holds tool invocations requested by an assistant turn.
	ToolCalls []ToolCall

	// ToolCallID links a RoleTool turn back to the assistant's request.
	ToolCallID string

	// ToolName names the tool for RoleTool turns.
	ToolName string
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	// ID is the provider-assigned call identifier.
	ID string

	// Name is the registered tool name.
	Name string

	// Arguments is the JSON-encoded argument payload.
	Arguments string
}

// ChatRequest is the provider-agnostic request shape handed to a CoreLLM.
type ChatRequest struct {
	// System carries the judge's system instruction, when present.
	System string

	// Messages is the conversation so far, oldest first.
	Messages []ChatMessage

	// Tools advertises the registered tools the model may invoke.
	// Providers without tool support ignore this field.
	Tools []Tool
}

// ChatResponse is a single assistant turn plus token accounting.
type ChatResponse struct {
	// Message is the assistant's reply. It may carry text, tool calls,
	// or both.
	Message ChatMessage

	// TokensIn and TokensOut report prompt and completion token usage.
	TokensIn  int
	TokensOut int
}

// CoreLLM defines the minimal interface that LLM providers must implement.
// The middleware chain wraps any conforming implementation, so providers
// only handle request formatting, authentication, and response parsing.
type CoreLLM interface {
	// DoRequest sends one conversation turn to the provider and returns
	// the assistant's reply. The opts map carries provider-agnostic
	// settings such as temperature, max_tokens, and model.
	DoRequest(ctx context.Context, req ChatRequest, opts map[string]any) (ChatResponse, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM implementation to add cross-cutting
// functionality such as timeouts, retries, rate limiting, or metrics
// without modifying provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds all configuration options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model specifies which model to use for requests.
	Model string

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string

	// Timeout sets the maximum duration for individual requests.
	// Zero means no timeout.
	Timeout time.Duration

	// Tools is the registry the automatic tool-invocation loop draws
	// from. Nil disables tool advertisement entirely.
	Tools *ToolRegistry

	// Middleware is applied in the order specified, first entry
	// outermost.
	Middleware []Middleware
}

// Client implements ports.ChatClient on top of a middleware-wrapped CoreLLM.
// Each Invoke call runs the tool loop against a fresh conversation, so one
// Client is safe to share across concurrent evaluators.
type Client struct {
	core  CoreLLM
	tools *ToolRegistry
}

var _ ports.ChatClient = (*Client)(nil)

// NewClient creates an LLM client for the named provider type.
// It assembles the middleware chain and validates configuration before
// returning a ready-to-use client.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse order so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core, tools: config.Tools}, nil
}

// newClientWithCore builds a Client around an existing CoreLLM.
// Used by tests to splice in fake providers.
func newClientWithCore(core CoreLLM, tools *ToolRegistry) *Client {
	return &Client{core: core, tools: tools}
}

// Invoke sends a system instruction plus user prompt and returns the full
// message sequence the exchange produced: interleaved tool traffic, then
// the model's final text. Tool invocation is automatic; a failing tool is
// reported back to the model as its result rather than aborting the call.
func (c *Client) Invoke(
	ctx context.Context,
	system, prompt string,
	options map[string]any,
) ([]domain.Message, error) {
	req := ChatRequest{
		System:   system,
		Messages: []ChatMessage{{Role: RoleUser, Content: prompt}},
	}
	if c.tools != nil {
		req.Tools = c.tools.Tools()
	}

	var out []domain.Message

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.core.DoRequest(ctx, req, options)
		if err != nil {
			return nil, ports.NewUpstreamError(c.core.GetModel(), "invoke", err)
		}

		reply := resp.Message
		if len(reply.ToolCalls) == 0 {
			out = append(out, domain.Message{Kind: domain.MessageText, Content: reply.Content})
			return out, nil
		}

		// The model went through tools this round. Record the traffic,
		// execute each call, and extend the conversation with results.
		req.Messages = append(req.Messages, reply)
		for _, call := range reply.ToolCalls {
			out = append(out, domain.Message{
				Kind:     domain.MessageToolCall,
				Content:  call.Arguments,
				ToolName: call.Name,
			})

			result := c.executeTool(ctx, call)
			out = append(out, domain.Message{
				Kind:     domain.MessageToolResult,
				Content:  result,
				ToolName: call.Name,
			})
			req.Messages = append(req.Messages, ChatMessage{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	return nil, ports.NewUpstreamError(c.core.GetModel(), "invoke",
		fmt.Errorf("tool loop exceeded %d rounds without a final answer", maxToolRounds))
}

// executeTool runs one registered tool and renders the outcome as text for
// the model. Unknown tools and tool failures become error text the model
// can recover from.
func (c *Client) executeTool(ctx context.Context, call ToolCall) string {
	if c.tools == nil {
		return fmt.Sprintf("error: no tools registered (requested %q)", call.Name)
	}
	result, err := c.tools.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}

// GetModel returns the configured model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a CoreLLM implementation from configuration.
// The factory registry lets the client construct providers without knowing
// their implementation details.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom provider factory, enabling
// extension with additional providers without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
