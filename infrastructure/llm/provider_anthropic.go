package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicDefaultModel is used when no model is configured for the provider.
const AnthropicDefaultModel = "claude-3-5-sonnet-20241022"

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider implements the CoreLLM interface for Anthropic's Claude
// API. Tool advertisement is not wired for this provider; tool turns in the
// conversation are flattened to text so judges configured against Claude
// models still evaluate, just without autonomous tool use.
type anthropicProvider struct {
	BaseProvider
	client       anthropic.Client
	tokenCounter *TokenCounter
}

// newAnthropicProvider creates a new Anthropic provider instance,
// validating that required configuration is present.
func newAnthropicProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		opts = append(opts, option.WithBaseURL(validatedURL))
	}

	return &anthropicProvider{
		BaseProvider: BaseProvider{model: model},
		client:       anthropic.NewClient(opts...),
		tokenCounter: NewTokenCounter(),
	}, nil
}

// DoRequest sends one conversation turn to the Claude API and returns the
// assistant's reply.
func (p *anthropicProvider) DoRequest(ctx context.Context, req ChatRequest, opts map[string]any) (ChatResponse, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages:  p.buildMessages(req),
	}
	if options.Temperature != nil {
		// Anthropic supports a temperature range of 0.0 to 1.0.
		params.Temperature = anthropic.Float(ClampFloat64(*options.Temperature, 0.0, 1.0))
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResponse{}, p.wrapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		}
	}

	reply := text.String()
	return ChatResponse{
		Message:   ChatMessage{Role: RoleAssistant, Content: reply},
		TokensIn:  p.tokenCounter.GetTokenCount(int(message.Usage.InputTokens), joinedContent(req)),
		TokensOut: p.tokenCounter.GetTokenCount(int(message.Usage.OutputTokens), reply),
	}, nil
}

// buildMessages flattens the provider-agnostic conversation for Claude.
// Assistant turns keep their role; tool turns become user text so the
// transcript stays coherent without native tool blocks.
func (p *anthropicProvider) buildMessages(req ChatRequest) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case RoleTool:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(fmt.Sprintf("[tool %s returned]: %s", m.ToolName, m.Content))))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return messages
}

// wrapError classifies Anthropic SDK errors with additional context.
func (p *anthropicProvider) wrapError(err error) error {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		classifier := &ErrorClassifier{Provider: "anthropic"}
		return classifier.ClassifyHTTPError(anthropicErr.StatusCode, "request failed", err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		classifier := &ErrorClassifier{Provider: "anthropic"}
		return classifier.ClassifyContextError(err)
	}

	return NewProviderError("anthropic", ErrorTypeUnknown, 0, "request failed", err)
}
