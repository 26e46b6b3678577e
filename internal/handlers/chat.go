package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"chatclone/internal/middleware"
	"chatclone/internal/models"
)

type chatService interface {
	Submit(ctx context.Context, sessionID uuid.UUID, prompt, apiKey string) (*models.ChatResponse, error)
	History(sessionID uuid.UUID) ([]models.Message, error)
	Reset(sessionID uuid.UUID) ([]models.Message, error)
}

type ChatHandler struct {
	chatService chatService
}

func NewChatHandler(chatService chatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	messages, err := h.chatService.History(sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{SessionID: sessionID, Messages: messages})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.chatService.Submit(r.Context(), middleware.GetSessionID(r.Context()), req.Prompt, req.APIKey)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	messages, err := h.chatService.Reset(sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{SessionID: sessionID, Messages: messages})
}
