package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatclone/internal/llm"
	"chatclone/internal/models"
)

type stubCompleter struct {
	reply  string
	err    error
	panics bool

	calls  int
	apiKey string
	conv   llm.Conversation
}

func (c *stubCompleter) Complete(ctx context.Context, apiKey string, conv llm.Conversation) (string, error) {
	c.calls++
	c.apiKey = apiKey
	c.conv = conv
	if c.panics {
		panic("boom")
	}
	return c.reply, c.err
}

func TestFetch_ReturnsReplyUnmodified(t *testing.T) {
	c := &stubCompleter{reply: "  **Paris**\n"}
	f := NewResponseFetcher(c)

	reply := f.Fetch(context.Background(), "capital of France?", []models.Turn{{Output: "hi"}}, "sk-1")

	assert.Equal(t, "  **Paris**\n", reply)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, "sk-1", c.apiKey)
}

func TestFetch_SerializesMemoryOldestFirst(t *testing.T) {
	c := &stubCompleter{reply: "ok"}
	f := NewResponseFetcher(c)

	memory := []models.Turn{{Output: "greeting"}, {Input: "q1", Output: "a1"}}
	f.Fetch(context.Background(), "q2", memory, "sk-1")

	require.Len(t, c.conv.Messages, 4)
	assert.Equal(t, "greeting", c.conv.Messages[0].Content)
	assert.Equal(t, "q1", c.conv.Messages[1].Content)
	assert.Equal(t, "a1", c.conv.Messages[2].Content)
	assert.Equal(t, models.Message{Role: models.RoleHuman, Content: "q2"}, c.conv.Messages[3])
}

func TestFetch_CollapsesFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer *stubCompleter
	}{
		{"invalid key", &stubCompleter{err: errors.New("openai status=401 type=invalid_request_error: Incorrect API key")}},
		{"quota exhausted", &stubCompleter{err: errors.New("insufficient_quota")}},
		{"network error", &stubCompleter{err: context.DeadlineExceeded}},
		{"empty reply", &stubCompleter{reply: ""}},
		{"panic", &stubCompleter{panics: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewResponseFetcher(tc.completer)
			reply := f.Fetch(context.Background(), "hi", nil, "sk-1")
			assert.Equal(t, FallbackReply, reply)
		})
	}
}
