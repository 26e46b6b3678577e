package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatclone/internal/middleware"
	"chatclone/internal/models"
	"chatclone/internal/services"
)

type stubChat struct {
	calls int
}

func (s *stubChat) Submit(ctx context.Context, sessionID uuid.UUID, prompt, apiKey string) (*models.ChatResponse, error) {
	if apiKey == "" {
		return nil, services.ErrMissingAPIKey
	}
	s.calls++
	return &models.ChatResponse{Reply: "echo: " + prompt}, nil
}

func newTestServer(t *testing.T, hub *Hub, sessionID uuid.UUID) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.SessionIDKey, sessionID)
		hub.HandleWebSocket(w, r.WithContext(ctx))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

type frame struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func TestHub_PromptReply(t *testing.T) {
	chat := &stubChat{}
	url := newTestServer(t, NewHub(chat, nil), uuid.New())
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "prompt",
		"payload": map[string]string{"prompt": "hi", "api_key": "sk-1"},
	}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "reply", got.Type)
	assert.Equal(t, "echo: hi", got.Payload["reply"])
	assert.Equal(t, 1, chat.calls)
}

func TestHub_MissingKey(t *testing.T) {
	chat := &stubChat{}
	url := newTestServer(t, NewHub(chat, nil), uuid.New())
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "prompt",
		"payload": map[string]string{"prompt": "hi"},
	}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "error", got.Type)
	assert.Equal(t, "VALIDATION_ERROR", got.Payload["code"])
	assert.Equal(t, services.MissingAPIKeyMessage, got.Payload["message"])
	assert.Equal(t, 0, chat.calls)
}

func TestHub_UnsupportedType(t *testing.T) {
	url := newTestServer(t, NewHub(&stubChat{}, nil), uuid.New())
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "stream"}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "error", got.Type)
}

func TestHub_RateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	url := newTestServer(t, NewHub(&stubChat{}, limiter), uuid.New())
	conn := dial(t, url)

	prompt := map[string]any{"type": "prompt", "payload": map[string]string{"prompt": "hi", "api_key": "k"}}
	var got frame

	require.NoError(t, conn.WriteJSON(prompt))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "reply", got.Type)

	require.NoError(t, conn.WriteJSON(prompt))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "error", got.Type)
	assert.Equal(t, "RATE_LIMITED", got.Payload["code"])
}

func TestHub_RejectsMissingSession(t *testing.T) {
	hub := NewHub(&stubChat{}, nil)
	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
