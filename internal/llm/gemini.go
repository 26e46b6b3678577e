package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"chatclone/internal/models"
)

// Gemini calls Google's Gemini API. A client is created per call because the
// key differs between sessions.
type Gemini struct {
	model       string
	temperature float32
	maxTokens   int
}

func NewGemini(opts Options) *Gemini {
	return &Gemini{
		model:       orDefault(opts.Model, DefaultGeminiModel),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func geminiRole(r models.Role) string {
	if r == models.RoleAI {
		return "model"
	}
	return "user"
}

func (g *Gemini) Complete(ctx context.Context, apiKey string, conv Conversation) (string, error) {
	system, msgs := conv.UserFirst()
	if len(msgs) == 0 {
		return "", fmt.Errorf("conversation has no user message")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	if g.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.maxTokens))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	last := msgs[len(msgs)-1]
	for _, m := range msgs[:len(msgs)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("Gemini returned empty text")
	}
	return text, nil
}

// extractText returns the text of the first candidate; the others are
// alternatives, not continuations.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
