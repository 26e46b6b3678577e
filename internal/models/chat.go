package models

import "github.com/google/uuid"

// Role identifies who authored a message.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Message is a single entry in the displayed conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is one (input, output) pair of the memory buffer.
type Turn struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Prompt string `json:"prompt"`
	APIKey string `json:"api_key"`
}

// ChatResponse is the reply from the AI chat plus the updated history.
type ChatResponse struct {
	Reply    string    `json:"reply"`
	Messages []Message `json:"messages"`
}

type HistoryResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Messages  []Message `json:"messages"`
}
