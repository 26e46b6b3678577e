package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatclone/internal/models"
)

type entry struct {
	mu       sync.Mutex // serializes submissions within one session
	session  *Session
	lastSeen time.Time
}

// Store keeps the live sessions of the process. Nothing is persisted: a
// restart starts every browser over with a fresh greeting.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	greeting string
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
}

func NewStore(greeting string, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*entry),
		greeting: greeting,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start runs the idle-session sweeper until Stop is called.
func (st *Store) Start() {
	if st.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(st.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-st.stop:
				return
			case <-ticker.C:
				if n := st.Sweep(); n > 0 {
					log.Printf("Evicted %d idle sessions", n)
				}
			}
		}
	}()
}

func (st *Store) Stop() {
	close(st.stop)
}

// Create registers a new seeded session and returns it.
func (st *Store) Create() *Session {
	s := New(st.greeting)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID()] = &entry{session: s, lastSeen: st.now()}
	return s
}

// Get returns the session for id and refreshes its idle timer. Reads that
// may race a submission go through With.
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = st.now()
	return e.session, true
}

// With runs fn while holding the session's writer lock. It returns false if
// the session does not exist.
func (st *Store) With(id uuid.UUID, fn func(s *Session)) bool {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if ok {
		e.lastSeen = st.now()
	}
	st.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
	return true
}

// Reset replaces the session stored under id with a freshly seeded one that
// keeps the same id, and returns its history. It waits for any in-flight
// submission of the session.
func (st *Store) Reset(id uuid.UUID) ([]models.Message, bool) {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if ok {
		e.lastSeen = st.now()
	}
	st.mu.Unlock()
	if !ok {
		return nil, false
	}

	s := New(st.greeting)
	s.id = id

	e.mu.Lock()
	defer e.mu.Unlock()
	st.mu.Lock()
	e.session = s
	st.mu.Unlock()
	return s.History(), true
}

func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and reports how many
// were removed.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.sessions {
		if st.now().Sub(e.lastSeen) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
