package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-progress-service/internal/domain"
	"quiz-progress-service/internal/progress"
)

// AttemptSource is the durable attempt history (e.g., Postgres).
type AttemptSource interface {
	Append(ctx context.Context, playerID, levelID string, attempt domain.Attempt) error
	LevelAttempts(ctx context.Context, playerID, levelID string) ([]domain.Attempt, error)
	PlayerAttempts(ctx context.Context, playerID string) ([]domain.Attempt, error)
}

// ProgressStore caches per-level progress with TTL to avoid recomputing it from the source.
type ProgressStore struct {
	source AttemptSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedProgress
}

type cachedProgress struct {
	result    domain.ProgressResult
	expiresAt time.Time
}

func NewProgressStore(source AttemptSource, ttl time.Duration) *ProgressStore {
	return &ProgressStore{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedProgress),
	}
}

func (s *ProgressStore) FetchProgress(ctx context.Context, playerID, levelID string, force bool) (domain.ProgressResult, error) {
	key := cacheKey(playerID, levelID)
	if !force {
		if res, ok := s.cached(key); ok {
			return res, nil
		}
	}

	flight := key
	if force {
		// forced reads never share a load that may have started before the last update
		flight += "#force"
	}
	result, err, _ := s.sf.Do(flight, func() (interface{}, error) {
		if !force {
			if res, ok := s.cached(key); ok {
				return res, nil
			}
		}
		now := s.clock()
		attempts, err := s.source.LevelAttempts(ctx, playerID, levelID)
		if err != nil {
			return nil, err
		}
		res := levelResult(levelID, attempts)
		expiresAt := now.Add(s.ttlWithJitter())

		s.mu.Lock()
		s.cache[key] = cachedProgress{result: res, expiresAt: expiresAt}
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.ProgressResult), nil
}

// UpdateProgress appends the attempt and drops the cached level progress.
func (s *ProgressStore) UpdateProgress(ctx context.Context, playerID, levelID string, attempt domain.Attempt) error {
	if err := s.source.Append(ctx, playerID, levelID, attempt); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, cacheKey(playerID, levelID))
	s.mu.Unlock()
	return nil
}

func (s *ProgressStore) Attempts(ctx context.Context, playerID string) ([]domain.Attempt, error) {
	return s.source.PlayerAttempts(ctx, playerID)
}

func (s *ProgressStore) cached(key string) (domain.ProgressResult, bool) {
	now := s.clock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.result, true
	}
	return nil, false
}

func (s *ProgressStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

func levelResult(levelID string, attempts []domain.Attempt) domain.ProgressResult {
	if len(attempts) == 0 {
		return domain.NoProgress{}
	}
	return domain.SingleLevelProgress{Progress: progress.BuildLevelProgress(levelID, attempts)}
}

func cacheKey(playerID, levelID string) string {
	return playerID + "|" + levelID
}
