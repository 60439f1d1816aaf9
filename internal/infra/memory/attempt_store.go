package memory

import (
	"context"
	"sync"

	"quiz-progress-service/internal/domain"
)

// AttemptStore keeps attempt history in process memory, in insertion order.
type AttemptStore struct {
	mu       sync.RWMutex
	byPlayer map[string][]storedAttempt
}

type storedAttempt struct {
	levelID string
	attempt domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{byPlayer: make(map[string][]storedAttempt)}
}

func (s *AttemptStore) Append(_ context.Context, playerID, levelID string, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPlayer[playerID] = append(s.byPlayer[playerID], storedAttempt{levelID: levelID, attempt: attempt})
	return nil
}

func (s *AttemptStore) LevelAttempts(_ context.Context, playerID, levelID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, sa := range s.byPlayer[playerID] {
		if sa.levelID == levelID {
			out = append(out, sa.attempt)
		}
	}
	return out, nil
}

func (s *AttemptStore) PlayerAttempts(_ context.Context, playerID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.byPlayer[playerID]
	out := make([]domain.Attempt, 0, len(stored))
	for _, sa := range stored {
		out = append(out, sa.attempt)
	}
	return out, nil
}
