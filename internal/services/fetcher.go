package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chatclone/internal/llm"
	"chatclone/internal/models"
)

// FallbackReply replaces the model reply whenever the remote call fails for
// any reason.
const FallbackReply = "抱歉，你的密钥有误或已欠费，我不能回答你的问题"

var tracer = otel.Tracer("chatclone/internal/services")

// ResponseFetcher turns a prompt plus memory into a reply. It never returns
// an error: failures are logged and collapse to FallbackReply.
type ResponseFetcher struct {
	completer llm.Completer
}

func NewResponseFetcher(completer llm.Completer) *ResponseFetcher {
	return &ResponseFetcher{completer: completer}
}

// Fetch blocks until the remote model answers or fails.
func (f *ResponseFetcher) Fetch(ctx context.Context, prompt string, memory []models.Turn, apiKey string) string {
	ctx, span := tracer.Start(ctx, "ResponseFetcher.Fetch", trace.WithAttributes(
		attribute.Int("chat.memory_turns", len(memory)),
		attribute.Int("chat.prompt_chars", len([]rune(prompt))),
	))
	defer span.End()

	reply, err := f.complete(ctx, apiKey, llm.BuildConversation(memory, prompt))
	if err == nil && reply == "" {
		err = errors.New("model returned an empty reply")
	}
	if err != nil {
		log.Printf("Chat completion failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return FallbackReply
	}

	span.SetAttributes(attribute.Int("chat.reply_chars", len([]rune(reply))))
	return reply
}

func (f *ResponseFetcher) complete(ctx context.Context, apiKey string, conv llm.Conversation) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completer panicked: %v", r)
		}
	}()
	return f.completer.Complete(ctx, apiKey, conv)
}
