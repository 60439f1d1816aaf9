package memory

import (
	"context"
	"sync"
)

type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]map[string]bool
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(map[string]map[string]bool)}
}

func (s *SettingsStore) GetBool(_ context.Context, playerID, key string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[playerID][key]
	return v, ok, nil
}

func (s *SettingsStore) SetBool(_ context.Context, playerID, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[playerID] == nil {
		s.values[playerID] = make(map[string]bool)
	}
	s.values[playerID][key] = value
	return nil
}
