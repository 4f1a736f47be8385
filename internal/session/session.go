// Package session keeps live transcripts, each with its own outline
// engine and scheduler goroutine.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/transcript"
)

// Status represents the lifecycle of a session.
type Status string

const (
	StatusReady     Status = "ready"
	StatusImporting Status = "importing"
	StatusFailed    Status = "failed"
)

// Session is one transcript being followed.
type Session struct {
	mu sync.Mutex

	ID       string
	Title    string
	Filename string

	status    Status
	err       string
	createdAt time.Time
	updatedAt time.Time

	Document *transcript.Document
	Outline  *outline.Manager

	cancel context.CancelFunc
	done   chan struct{}
}

// Touch marks the session as used so it is not evicted.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
}

// SetStatus updates the status and records an error message, if any.
func (s *Session) SetStatus(status Status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.err = errMsg
	s.updatedAt = time.Now()
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename,omitempty"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	msgs := s.Document.Len()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.ID,
		Title:     s.Title,
		Filename:  s.Filename,
		Status:    s.status,
		Error:     s.err,
		Messages:  msgs,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// stop cancels the scheduler goroutine and waits for it to exit.
func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes and returns a session, or nil.
func (s *Store) Delete(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	return sess
}

// List returns all sessions, oldest first.
func (s *Store) List() []*Session {
	s.mu.Lock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b *Session) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle longer than the TTL and returns them so
// the caller can stop their goroutines outside the store lock.
func (s *Store) Cleanup() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var expired []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed()) > s.ttl {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	return expired
}
