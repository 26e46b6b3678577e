package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatclone/internal/middleware"
	"chatclone/internal/models"
	"chatclone/internal/services"
)

// The default origin check applies: the session cookie rides along with the
// upgrade, so only same-origin pages may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type chatService interface {
	Submit(ctx context.Context, sessionID uuid.UUID, prompt, apiKey string) (*models.ChatResponse, error)
}

// client serializes writes; gorilla connections allow one writer at a time.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub lets a browser submit prompts over a websocket. Replies are sent to
// every open connection of the same session, so other tabs stay in sync.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*client
	chat        chatService
	limiter     *middleware.RateLimiter
}

func NewHub(chat chatService, limiter *middleware.RateLimiter) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*client),
		chat:        chat,
		limiter:     limiter,
	}
}

type promptPayload struct {
	Prompt string `json:"prompt"`
	APIKey string `json:"api_key"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == uuid.Nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}
	h.registerConnection(sessionID, c)

	defer h.unregisterConnection(sessionID, c)

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.handle(r.Context(), sessionID, c, msg)
	}
}

func (h *Hub) handle(ctx context.Context, sessionID uuid.UUID, c *client, msg inbound) {
	if msg.Type != "prompt" {
		h.sendError(c, "VALIDATION_ERROR", "Unsupported message type", nil)
		return
	}

	var p promptPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		h.sendError(c, "VALIDATION_ERROR", "Invalid payload", nil)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(middleware.SessionKey(sessionID)) {
		h.sendError(c, "RATE_LIMITED", "Too many messages. Please wait a moment and try again.", nil)
		return
	}

	resp, err := h.chat.Submit(ctx, sessionID, p.Prompt, p.APIKey)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			h.sendError(c, "VALIDATION_ERROR", verr.Error(), verr.Fields)
		default:
			h.sendError(c, "INTERNAL_ERROR", err.Error(), nil)
		}
		return
	}

	h.SendToSession(sessionID, models.WSMessage{Type: "reply", Payload: resp})
}

func (h *Hub) sendError(c *client, code, message string, fields map[string]string) {
	data, err := json.Marshal(models.WSMessage{
		Type:    "error",
		Payload: models.APIError{Code: code, Message: message, Fields: fields},
	})
	if err != nil {
		return
	}
	c.send(data)
}

func (h *Hub) registerConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], c)
	log.Printf("WebSocket connected: session %s (total: %d)", sessionID, len(h.connections[sessionID]))
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
	}

	log.Printf("WebSocket disconnected: session %s", sessionID)
}

func (h *Hub) broadcast(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[sessionID] {
		if err := c.send(data); err != nil {
			log.Printf("WebSocket write failed: session %s: %v", sessionID, err)
		}
	}
}

// SendToSession sends msg to every connection of a session.
func (h *Hub) SendToSession(sessionID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(sessionID, data)
}

// Connections reports the number of open connections for a session.
func (h *Hub) Connections(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}
