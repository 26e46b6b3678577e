package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chatclone/internal/models"
	"chatclone/internal/session"
)

// Fetcher is the part of ResponseFetcher ChatService depends on.
type Fetcher interface {
	Fetch(ctx context.Context, prompt string, memory []models.Turn, apiKey string) string
}

// ChatService runs one submission: validate, append the prompt, fetch the
// reply and append it.
type ChatService struct {
	store   *session.Store
	fetcher Fetcher
}

func NewChatService(store *session.Store, fetcher Fetcher) *ChatService {
	return &ChatService{
		store:   store,
		fetcher: fetcher,
	}
}

// Submit appends prompt and the model's reply to the session. A missing key
// fails with ErrMissingAPIKey before the history is touched.
func (s *ChatService) Submit(ctx context.Context, sessionID uuid.UUID, prompt, apiKey string) (resp *models.ChatResponse, err error) {
	ctx, span := tracer.Start(ctx, "ChatService.Submit", trace.WithAttributes(
		attribute.String("chat.session_id", sessionID.String()),
	))
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		return nil, &ValidationError{
			Message: "Message is required",
			Fields:  map[string]string{"prompt": "Message is required"},
		}
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Submit panicked for session %s: %v", sessionID, r)
			resp, err = nil, &UnexpectedError{Message: fmt.Sprintf("出错了：%v", r)}
		}
	}()

	// The reply is awaited even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	found := s.store.With(sessionID, func(sess *session.Session) {
		memory := sess.Memory()
		sess.AppendHuman(prompt)

		reply := FallbackReply
		defer func() {
			sess.AppendAI(reply)
			resp = &models.ChatResponse{Reply: reply, Messages: sess.History()}
		}()
		reply = s.fetcher.Fetch(ctx, prompt, memory, apiKey)
	})
	if !found {
		return nil, errSessionNotFound
	}
	return resp, nil
}

// History waits for any in-flight submission of the session to finish.
func (s *ChatService) History(sessionID uuid.UUID) ([]models.Message, error) {
	var history []models.Message
	found := s.store.With(sessionID, func(sess *session.Session) {
		history = sess.History()
	})
	if !found {
		return nil, errSessionNotFound
	}
	return history, nil
}

// Reset starts the session over with only the greeting.
func (s *ChatService) Reset(sessionID uuid.UUID) ([]models.Message, error) {
	history, ok := s.store.Reset(sessionID)
	if !ok {
		return nil, errSessionNotFound
	}
	return history, nil
}
