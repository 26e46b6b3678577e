package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatclone/internal/llm"
	"chatclone/internal/models"
	"chatclone/internal/session"
)

// scriptedCompleter answers each call with the next entry of replies; an
// entry of "" fails the call.
type scriptedCompleter struct {
	replies []string
	convs   []llm.Conversation
}

func (c *scriptedCompleter) Complete(ctx context.Context, apiKey string, conv llm.Conversation) (string, error) {
	c.convs = append(c.convs, conv)
	i := len(c.convs) - 1
	if i >= len(c.replies) || c.replies[i] == "" {
		return "", errors.New("remote failure")
	}
	return c.replies[i], nil
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(ctx context.Context, prompt string, memory []models.Turn, apiKey string) string {
	panic("unexpected")
}

func newTestService(c llm.Completer) (*ChatService, *session.Session) {
	store := session.NewStore("", time.Hour)
	sess := store.Create()
	return NewChatService(store, NewResponseFetcher(c)), sess
}

func TestSubmit_HistoryGrowsByTwoPerSubmission(t *testing.T) {
	replies := []string{"a0", "a1", "a2", "a3"}
	svc, sess := newTestService(&scriptedCompleter{replies: replies})

	for n := 1; n <= len(replies); n++ {
		_, err := svc.Submit(context.Background(), sess.ID(), fmt.Sprintf("q%d", n-1), "sk-1")
		require.NoError(t, err)

		assert.Len(t, sess.History(), 1+2*n)
		assert.Len(t, sess.Memory(), 1+n)
	}

	for i, turn := range sess.Memory()[1:] {
		assert.Equal(t, models.Turn{Input: fmt.Sprintf("q%d", i), Output: fmt.Sprintf("a%d", i)}, turn)
	}
}

func TestSubmit_AppendsExactReply(t *testing.T) {
	svc, sess := newTestService(&scriptedCompleter{replies: []string{"  exact\nreply "}})

	resp, err := svc.Submit(context.Background(), sess.ID(), "hello", "sk-1")
	require.NoError(t, err)

	assert.Equal(t, "  exact\nreply ", resp.Reply)
	last := sess.History()[2]
	assert.Equal(t, models.Message{Role: models.RoleAI, Content: "  exact\nreply "}, last)
	assert.Equal(t, sess.History(), resp.Messages)
}

func TestSubmit_MissingAPIKeyLeavesHistoryUnchanged(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"never"}}
	svc, sess := newTestService(c)

	for _, key := range []string{"", "   "} {
		_, err := svc.Submit(context.Background(), sess.ID(), "hello", key)
		require.Error(t, err)
		assert.Same(t, ErrMissingAPIKey, err)
	}

	assert.Empty(t, c.convs)
	assert.Len(t, sess.History(), 1)
	assert.Len(t, sess.Memory(), 1)
}

func TestSubmit_EmptyPrompt(t *testing.T) {
	c := &scriptedCompleter{}
	svc, sess := newTestService(c)

	_, err := svc.Submit(context.Background(), sess.ID(), "  ", "sk-1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "prompt")
	assert.Empty(t, c.convs)
	assert.Len(t, sess.History(), 1)
}

func TestSubmit_FailureYieldsFallbackAndLaterTurnsContinue(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"a0", "", "a2"}}
	svc, sess := newTestService(c)

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), sess.ID(), fmt.Sprintf("q%d", i), "sk-1")
		require.NoError(t, err)
	}

	mem := sess.Memory()
	require.Len(t, mem, 4)
	assert.Equal(t, models.Turn{Input: "q0", Output: "a0"}, mem[1])
	assert.Equal(t, models.Turn{Input: "q1", Output: FallbackReply}, mem[2])
	assert.Equal(t, models.Turn{Input: "q2", Output: "a2"}, mem[3])

	// The failed turn is replayed to the model like any other.
	last := c.convs[2].Messages
	assert.Equal(t, FallbackReply, last[len(last)-2].Content)
	assert.Len(t, sess.History(), 7)
}

func TestSubmit_UnknownSession(t *testing.T) {
	svc, _ := newTestService(&scriptedCompleter{})

	_, err := svc.Submit(context.Background(), uuid.New(), "hi", "sk-1")

	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestSubmit_RecoversPanicAndKeepsLockstep(t *testing.T) {
	store := session.NewStore("", time.Hour)
	sess := store.Create()
	svc := NewChatService(store, panickingFetcher{})

	_, err := svc.Submit(context.Background(), sess.ID(), "hi", "sk-1")

	var ue *UnexpectedError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Message, "unexpected")
	assert.Len(t, sess.History(), 3)
	assert.Len(t, sess.Memory(), 2)
}

func TestSubmit_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	store := session.NewStore("", time.Hour)
	sess := store.Create()
	svc := NewChatService(store, fetcherFunc(func(ctx context.Context) string {
		seen = ctx.Err()
		return "done"
	}))

	resp, err := svc.Submit(ctx, sess.ID(), "hi", "sk-1")
	require.NoError(t, err)
	assert.NoError(t, seen)
	assert.Equal(t, "done", resp.Reply)
}

type fetcherFunc func(ctx context.Context) string

func (f fetcherFunc) Fetch(ctx context.Context, prompt string, memory []models.Turn, apiKey string) string {
	return f(ctx)
}

func TestHistoryAndReset(t *testing.T) {
	svc, sess := newTestService(&scriptedCompleter{replies: []string{"a0"}})
	_, err := svc.Submit(context.Background(), sess.ID(), "q0", "sk-1")
	require.NoError(t, err)

	hist, err := svc.History(sess.ID())
	require.NoError(t, err)
	assert.Len(t, hist, 3)

	hist, err = svc.Reset(sess.ID())
	require.NoError(t, err)
	assert.Equal(t, []models.Message{{Role: models.RoleAI, Content: session.DefaultGreeting}}, hist)

	_, err = svc.History(uuid.New())
	assert.Error(t, err)
	_, err = svc.Reset(uuid.New())
	assert.Error(t, err)
}

func TestReset_ConcurrentWithSubmit(t *testing.T) {
	store := session.NewStore("", time.Hour)
	sess := store.Create()
	svc := NewChatService(store, fetcherFunc(func(ctx context.Context) string { return "ok" }))

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Submit(context.Background(), sess.ID(), "q", "sk-1")
			assert.NoError(t, err)
		}
	}()
	resets := make([][]models.Message, 0, rounds)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			hist, err := svc.Reset(sess.ID())
			assert.NoError(t, err)
			resets = append(resets, hist)
		}
	}()
	wg.Wait()

	for _, hist := range resets {
		assert.Equal(t, []models.Message{{Role: models.RoleAI, Content: session.DefaultGreeting}}, hist)
	}

	hist, err := svc.History(sess.ID())
	require.NoError(t, err)
	require.Equal(t, 1, len(hist)%2)
	for i, m := range hist {
		if i%2 == 0 {
			assert.Equal(t, models.RoleAI, m.Role)
		} else {
			assert.Equal(t, models.RoleHuman, m.Role)
		}
	}
}
