package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// PreferenceStore persists sound preferences: SET quiz:pref:{clientID}:sound true|false
// Keys never expire; unknown clients default to sound on.
type PreferenceStore struct {
	client *redis.Client
}

func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func (s *PreferenceStore) SoundEnabled(ctx context.Context, clientID string) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return true, nil
	}
	return enabled, nil
}

func (s *PreferenceStore) SetSoundEnabled(ctx context.Context, clientID string, enabled bool) error {
	return s.client.Set(ctx, s.key(clientID), strconv.FormatBool(enabled), 0).Err()
}

func (s *PreferenceStore) key(clientID string) string {
	return "quiz:pref:" + clientID + ":sound"
}
