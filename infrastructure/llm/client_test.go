package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

func TestNewClient_RequiresAPIKeyAndModel(t *testing.T) {
	_, err := NewClient("openai", ClientConfig{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	_, err = NewClient("openai", ClientConfig{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient("nonexistent", ClientConfig{APIKey: "key", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewClient_AppliesMiddlewareInOrder(t *testing.T) {
	RegisterProviderFactory("order-test", func(config ClientConfig) (CoreLLM, error) {
		return NewMockCoreLLM(), nil
	})

	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return &taggedCore{next: next, name: name, order: &order}
		}
	}

	client, err := NewClient("order-test", ClientConfig{
		APIKey:     "key",
		Model:      "m",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = client.Invoke(context.Background(), "", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order,
		"first middleware entry should be outermost")
}

type taggedCore struct {
	next  CoreLLM
	name  string
	order *[]string
}

func (c *taggedCore) DoRequest(ctx context.Context, req ChatRequest, opts map[string]any) (ChatResponse, error) {
	*c.order = append(*c.order, c.name)
	return c.next.DoRequest(ctx, req, opts)
}

func (c *taggedCore) GetModel() string  { return c.next.GetModel() }
func (c *taggedCore) SetModel(m string) { c.next.SetModel(m) }

func TestClientInvoke_ReturnsFinalText(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Response.Message.Content = "the verdict is PASS"
	client := newClientWithCore(mock, nil)

	msgs, err := client.Invoke(context.Background(), "be strict", "judge this", nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MessageText, msgs[0].Kind)
	assert.Equal(t, "the verdict is PASS", msgs[0].Content)

	assert.Equal(t, "be strict", mock.LastRequest.System)
	require.Len(t, mock.LastRequest.Messages, 1)
	assert.Equal(t, "judge this", mock.LastRequest.Messages[0].Content)
}

func TestClientInvoke_EmptyReplyIsNotAnError(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Response.Message.Content = ""
	client := newClientWithCore(mock, nil)

	// The no-output case belongs to the verdict layer, so an empty reply
	// must come back as an empty text message rather than a failure.
	msgs, err := client.Invoke(context.Background(), "be strict", "judge this", nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MessageText, msgs[0].Kind)
	assert.Empty(t, msgs[0].Content)
}

func TestClientInvoke_RunsToolLoop(t *testing.T) {
	tools := NewToolRegistry()
	require.NoError(t, tools.Register(Tool{
		Name:        "lookup_rules",
		Description: "Returns the grading rules.",
		Func: func(ctx context.Context, arguments string) (string, error) {
			return "rule: answers must cite sources", nil
		},
	}))

	mock := NewMockCoreLLM()
	mock.Script = []ChatResponse{
		{Message: ChatMessage{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: "call-1", Name: "lookup_rules", Arguments: `{}`}},
		}},
		{Message: ChatMessage{Role: RoleAssistant, Content: "FAIL: no sources cited"}},
	}
	client := newClientWithCore(mock, tools)

	msgs, err := client.Invoke(context.Background(), "", "judge this", nil)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, domain.MessageToolCall, msgs[0].Kind)
	assert.Equal(t, "lookup_rules", msgs[0].ToolName)
	assert.Equal(t, domain.MessageToolResult, msgs[1].Kind)
	assert.Equal(t, "rule: answers must cite sources", msgs[1].Content)
	assert.Equal(t, domain.MessageText, msgs[2].Kind)
	assert.Equal(t, "FAIL: no sources cited", msgs[2].Content)

	// Second round should carry the tool result back to the model.
	require.Equal(t, 2, mock.GetCallCount())
	last := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1]
	assert.Equal(t, RoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
}

func TestClientInvoke_ToolFailureFedBackToModel(t *testing.T) {
	tools := NewToolRegistry()
	require.NoError(t, tools.Register(Tool{
		Name: "broken",
		Func: func(ctx context.Context, arguments string) (string, error) {
			return "", fmt.Errorf("backend unavailable")
		},
	}))

	mock := NewMockCoreLLM()
	mock.Script = []ChatResponse{
		{Message: ChatMessage{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: "call-1", Name: "broken", Arguments: `{}`}},
		}},
		{Message: ChatMessage{Role: RoleAssistant, Content: "done without tool"}},
	}
	client := newClientWithCore(mock, tools)

	msgs, err := client.Invoke(context.Background(), "", "judge", nil)
	require.NoError(t, err, "tool failure should not abort the call")
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[1].Content, "backend unavailable")
}

func TestClientInvoke_BoundsToolRounds(t *testing.T) {
	tools := NewToolRegistry()
	require.NoError(t, tools.Register(Tool{
		Name: "loop",
		Func: func(ctx context.Context, arguments string) (string, error) {
			return "again", nil
		},
	}))

	mock := NewMockCoreLLM()
	// Every round requests another tool call, so the loop never terminates
	// on its own.
	mock.Script = []ChatResponse{
		{Message: ChatMessage{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: "c", Name: "loop", Arguments: `{}`}},
		}},
	}
	client := newClientWithCore(mock, tools)

	_, err := client.Invoke(context.Background(), "", "judge", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool loop exceeded")
	assert.Equal(t, maxToolRounds, mock.GetCallCount())
}

func TestClientInvoke_WrapsProviderErrors(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = errors.New("connection refused")
	client := newClientWithCore(mock, nil)

	_, err := client.Invoke(context.Background(), "", "judge", nil)
	require.Error(t, err)

	var upstream *ports.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "test-model", upstream.Model)
	assert.Equal(t, "invoke", upstream.Operation)
}

func TestClientInvoke_UnknownToolReportedAsResult(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Script = []ChatResponse{
		{Message: ChatMessage{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: "c", Name: "ghost", Arguments: `{}`}},
		}},
		{Message: ChatMessage{Role: RoleAssistant, Content: "final"}},
	}
	client := newClientWithCore(mock, NewToolRegistry())

	msgs, err := client.Invoke(context.Background(), "", "judge", nil)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.MessageToolResult, msgs[1].Kind)
	assert.Contains(t, msgs[1].Content, "error:")
}
