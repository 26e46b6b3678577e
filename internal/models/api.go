package models

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"` // "prompt" | "reply" | "error"
	Payload interface{} `json:"payload"`
}

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
