package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultAnthropicModel is used when no model is configured.
	DefaultAnthropicModel = "claude-sonnet-4-5"

	systemPrompt = "You are an expert in optimizing content for online engagement. " +
		"You always answer with one JSON object and nothing else."
	maxTokens = 4096
)

// AnthropicRewriter asks a Claude model for the rewrite.
type AnthropicRewriter struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicRewriter creates a rewriter. opts are appended to the client
// options, tests use them to point at a fake server.
func NewAnthropicRewriter(apiKey, model string, opts ...option.RequestOption) (*AnthropicRewriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicRewriter{client: &client, model: model}, nil
}

func (a *AnthropicRewriter) Name() string { return "anthropic" }

func (a *AnthropicRewriter) Rewrite(ctx context.Context, req Request) (*Response, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	resp, err := ParseResponse(text.String())
	if err != nil {
		return nil, fmt.Errorf("unusable model output (stop reason %s): %w", message.StopReason, err)
	}
	return resp, nil
}
