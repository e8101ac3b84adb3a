// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"sync"
	"time"

	"github.com/skillgate/skillgate/internal/domain/session"
)

// SessionStore implements session.Store with an in-memory map. It does not
// survive the process, so it only serves tests and the fail-open fallback
// when the durable store cannot be opened.
type SessionStore struct {
	mu     sync.RWMutex
	states map[string]*session.State
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{states: make(map[string]*session.State)}
}

// Get returns a copy of the session's state, or an empty state.
func (s *SessionStore) Get(sessionID string) session.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sessionID]
	if !ok {
		return session.State{}
	}
	out := *st
	out.UsedSkills = append([]string(nil), st.UsedSkills...)
	return out
}

// MarkUsed records the skill for the session. Idempotent.
func (s *SessionStore) MarkUsed(sessionID, skill string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	st, ok := s.states[sessionID]
	if !ok {
		st = &session.State{CreatedAt: now}
		s.states[sessionID] = st
	}
	if st.Has(skill) {
		return nil
	}
	st.UsedSkills = append(st.UsedSkills, skill)
	st.UpdatedAt = now
	return nil
}

// HasUsed reports whether the skill is marked used for the session.
func (s *SessionStore) HasUsed(sessionID, skill string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sessionID]
	return ok && st.Has(skill)
}

// Compile-time interface verification.
var _ session.Store = (*SessionStore)(nil)
