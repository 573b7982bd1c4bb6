package memory

import (
	"context"
	"sync"
)

// PreferenceStore keeps sound preferences in memory. Unknown clients default to sound on.
type PreferenceStore struct {
	mu    sync.RWMutex
	sound map[string]bool
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{sound: make(map[string]bool)}
}

func (s *PreferenceStore) SoundEnabled(_ context.Context, clientID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.sound[clientID]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

func (s *PreferenceStore) SetSoundEnabled(_ context.Context, clientID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sound[clientID] = enabled
	return nil
}
