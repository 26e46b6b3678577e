package llm

import (
	"strings"

	"chatclone/internal/models"
)

// SystemPreamble frames the replayed memory as an ongoing conversation.
const SystemPreamble = "The following is a friendly conversation between a human and an AI. " +
	"The AI is talkative and provides lots of specific details from its context. " +
	"If the AI does not know the answer to a question, it truthfully says it does not know."

// Conversation is the provider-neutral request: a system instruction and the
// ordered messages, oldest first, ending with the new prompt.
type Conversation struct {
	System   string
	Messages []models.Message
}

// BuildConversation serializes the memory buffer followed by prompt. Turns
// with an empty input (the seeded greeting) contribute only their output.
func BuildConversation(memory []models.Turn, prompt string) Conversation {
	msgs := make([]models.Message, 0, 2*len(memory)+1)
	for _, t := range memory {
		if t.Input != "" {
			msgs = append(msgs, models.Message{Role: models.RoleHuman, Content: t.Input})
		}
		msgs = append(msgs, models.Message{Role: models.RoleAI, Content: t.Output})
	}
	msgs = append(msgs, models.Message{Role: models.RoleHuman, Content: prompt})

	return Conversation{System: SystemPreamble, Messages: msgs}
}

// UserFirst returns the conversation in the shape required by APIs that
// reject an assistant message before the first user message: leading AI
// messages are moved into the system instruction.
func (c Conversation) UserFirst() (string, []models.Message) {
	var b strings.Builder
	b.WriteString(c.System)

	i := 0
	for ; i < len(c.Messages) && c.Messages[i].Role == models.RoleAI; i++ {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("You opened the conversation by saying: ")
		b.WriteString(c.Messages[i].Content)
	}
	return b.String(), c.Messages[i:]
}
