package memory

import (
	"sync"

	"checkpoint-quiz/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Runner
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Runner),
	}
}

// Replace stores runner under its client id and returns the runner it displaced, if any.
func (s *SessionStore) Replace(runner *app.Runner) *app.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.sessions[runner.ID()]
	s.sessions[runner.ID()] = runner
	return old
}

func (s *SessionStore) Get(clientID string) (*app.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.sessions[clientID]
	return runner, ok
}

// Remove forgets runner only while it is still the client's current runner.
func (s *SessionStore) Remove(runner *app.Runner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[runner.ID()] != runner {
		return false
	}
	delete(s.sessions, runner.ID())
	return true
}

// Len reports how many runners are stored.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
