package redis

import (
	"context"
	"sync"
	"time"

	"checkpoint-quiz/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Runners own timers and a live presenter, so they stay in a local map.
//   - Redis only marks which clients have a live runner on some instance,
//     refreshed on every Replace and removed on Remove.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Runner
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Runner),
	}
}

func (s *SessionStore) Replace(runner *app.Runner) *app.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.sessions[runner.ID()]
	s.sessions[runner.ID()] = runner
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(runner.ID()), "1", s.ttl).Err()
	return old
}

func (s *SessionStore) Get(clientID string) (*app.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.sessions[clientID]
	return runner, ok
}

func (s *SessionStore) Remove(runner *app.Runner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[runner.ID()] != runner {
		return false
	}
	delete(s.sessions, runner.ID())
	_ = s.client.Del(context.Background(), s.key(runner.ID())).Err()
	return true
}

func (s *SessionStore) key(clientID string) string {
	return "quiz:session:" + clientID
}
