package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"chatclone/internal/models"
)

const defaultAnthropicMaxTokens = 1024

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	model       string
	baseURL     string
	temperature float32
	maxTokens   int64
}

func NewAnthropic(opts Options) *Anthropic {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &Anthropic{
		model:       orDefault(opts.Model, DefaultAnthropicModel),
		baseURL:     opts.BaseURL,
		temperature: opts.Temperature,
		maxTokens:   maxTokens,
	}
}

func (a *Anthropic) Complete(ctx context.Context, apiKey string, conv Conversation) (string, error) {
	system, msgs := conv.UserFirst()
	if len(msgs) == 0 {
		return "", fmt.Errorf("conversation has no user message")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if a.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(a.baseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(msgs)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	// Anthropic accepts [0, 1].
	params.Temperature = anthropic.Float(float64(min(a.temperature, 1)))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == models.RoleAI {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic response has no text (stop_reason=%s)", msg.StopReason)
	}
	return strings.Join(parts, "\n"), nil
}
