package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// SettingsStore keeps one hash per player: HSET settings:{playerID} {key} 0|1
type SettingsStore struct {
	client *redis.Client
}

func NewSettingsStore(client *redis.Client) *SettingsStore {
	return &SettingsStore{client: client}
}

func (s *SettingsStore) GetBool(ctx context.Context, playerID, key string) (bool, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(playerID), key).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return raw == "1", true, nil
}

func (s *SettingsStore) SetBool(ctx context.Context, playerID, key string, value bool) error {
	return s.client.HSet(ctx, s.key(playerID), key, value).Err()
}

func (s *SettingsStore) key(playerID string) string {
	return "settings:" + playerID
}
