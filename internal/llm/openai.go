package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatclone/internal/models"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

func NewOpenAI(opts Options) *OpenAI {
	return &OpenAI{
		baseURL:     strings.TrimRight(orDefault(opts.BaseURL, DefaultOpenAIBaseURL), "/"),
		model:       orDefault(opts.Model, DefaultOpenAIModel),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  &http.Client{},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float32         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func openAIRole(r models.Role) string {
	if r == models.RoleAI {
		return "assistant"
	}
	return "user"
}

func (c *OpenAI) Complete(ctx context.Context, apiKey string, conv Conversation) (string, error) {
	msgs := make([]openAIMessage, 0, len(conv.Messages)+1)
	if conv.System != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: conv.System})
	}
	for _, m := range conv.Messages {
		msgs = append(msgs, openAIMessage{Role: openAIRole(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(openAIRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading openai response: %w", err)
	}

	var parsed openAIResponse
	parseErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parseErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("openai status=%d type=%s: %s", resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("openai non-success status=%d body=%s", resp.StatusCode, truncate(string(body), 400))
	}
	if parseErr != nil {
		return "", fmt.Errorf("failed to parse openai response: %s", truncate(string(body), 400))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
