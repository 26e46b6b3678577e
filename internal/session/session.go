// Package session holds the per-browser conversation state: the displayed
// message list and the memory buffer replayed to the model on every request.
package session

import (
	"github.com/google/uuid"

	"chatclone/internal/models"
)

// DefaultGreeting is the AI message every new session starts with.
const DefaultGreeting = "你好，我是你的AI助手，有什么可以帮你的吗？"

// Session is the state of one conversation. It is not safe for concurrent
// use; Store serializes writers per session.
type Session struct {
	id       uuid.UUID
	messages []models.Message
	memory   []models.Turn
	pending  string
}

// New returns a session seeded with greeting as its first AI message and a
// matching memory turn with empty input.
func New(greeting string) *Session {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	s := &Session{id: uuid.New()}
	s.AppendAI(greeting)
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// AppendHuman records a user prompt. The prompt becomes the input of the
// turn closed by the next AppendAI.
func (s *Session) AppendHuman(text string) {
	s.messages = append(s.messages, models.Message{Role: models.RoleHuman, Content: text})
	s.pending = text
}

// AppendAI records a model reply and closes the current turn in the memory
// buffer in the same step.
func (s *Session) AppendAI(text string) {
	s.messages = append(s.messages, models.Message{Role: models.RoleAI, Content: text})
	s.memory = append(s.memory, models.Turn{Input: s.pending, Output: text})
	s.pending = ""
}

// History returns a copy of the displayed messages in insertion order.
func (s *Session) History() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Memory returns a copy of the memory buffer, oldest turn first. The first
// entry is always the seeded greeting turn.
func (s *Session) Memory() []models.Turn {
	out := make([]models.Turn, len(s.memory))
	copy(out, s.memory)
	return out
}

// Len returns the number of completed turns, excluding the seed.
func (s *Session) Len() int {
	return len(s.memory) - 1
}
