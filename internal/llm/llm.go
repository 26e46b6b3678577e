// Package llm adapts remote text-generation APIs to a single Completer
// interface. Adapters return raw errors; collapsing them into a user-facing
// reply is the caller's job.
package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultGeminiModel    = "gemini-1.5-flash"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// Completer sends a conversation to a model and returns the reply text.
// The API key is supplied per call because it belongs to the end user.
type Completer interface {
	Complete(ctx context.Context, apiKey string, conv Conversation) (string, error)
}

type Options struct {
	Provider    string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// New builds the Completer for opts.Provider.
func New(opts Options) (Completer, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(opts), nil
	case ProviderGemini:
		return NewGemini(opts), nil
	case ProviderAnthropic:
		return NewAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
