package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
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

// ProgressStore caches per-level progress in Redis (hash per player and level) and falls
// back to the attempt source on a miss.
// Stored as: HSET progress:{playerID}:{levelID} total correct time completed last recent
// A level without attempts is stored as: HSET progress:{playerID}:{levelID} empty 1
type ProgressStore struct {
	client *redis.Client
	source AttemptSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewProgressStore(client *redis.Client, source AttemptSource, ttl time.Duration) *ProgressStore {
	return &ProgressStore{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ProgressStore) FetchProgress(ctx context.Context, playerID, levelID string, force bool) (domain.ProgressResult, error) {
	key := s.progressKey(playerID, levelID)
	if !force {
		if res, ok := s.cached(ctx, key, levelID); ok {
			return res, nil
		}
	}

	flight := key
	if force {
		flight += "#force"
	}
	result, err, _ := s.sf.Do(flight, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if !force {
			if res, ok := s.cached(ctx, key, levelID); ok {
				return res, nil
			}
		}

		attempts, err := s.source.LevelAttempts(ctx, playerID, levelID)
		if err != nil {
			return nil, err
		}
		var res domain.ProgressResult = domain.NoProgress{}
		if len(attempts) > 0 {
			res = domain.SingleLevelProgress{Progress: progress.BuildLevelProgress(levelID, attempts)}
		}
		s.fill(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.ProgressResult), nil
}

// UpdateProgress appends the attempt and evicts the cached level hash.
func (s *ProgressStore) UpdateProgress(ctx context.Context, playerID, levelID string, attempt domain.Attempt) error {
	if err := s.source.Append(ctx, playerID, levelID, attempt); err != nil {
		return err
	}
	return s.client.Del(ctx, s.progressKey(playerID, levelID)).Err()
}

func (s *ProgressStore) Attempts(ctx context.Context, playerID string) ([]domain.Attempt, error) {
	return s.source.PlayerAttempts(ctx, playerID)
}

func (s *ProgressStore) cached(ctx context.Context, key, levelID string) (domain.ProgressResult, bool) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	if fields["empty"] == "1" {
		return domain.NoProgress{}, true
	}
	lp, ok := levelFromCache(levelID, fields)
	if !ok {
		return nil, false
	}
	return domain.SingleLevelProgress{Progress: lp}, true
}

func (s *ProgressStore) fill(ctx context.Context, key string, res domain.ProgressResult) {
	ttl := s.ttlWithJitter()
	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	switch r := res.(type) {
	case domain.NoProgress:
		pipe.HSet(ctx, key, "empty", 1)
	case domain.SingleLevelProgress:
		p := r.Progress
		recent, _ := json.Marshal(p.RecentAttempts)
		pipe.HSet(ctx, key,
			"total", p.TotalAttempts,
			"correct", p.CorrectAttempts,
			"time", p.TotalTimeSpent,
			"completed", p.IsCompleted,
			"recent", recent,
		)
		if p.LastAttemptDate != nil {
			pipe.HSet(ctx, key, "last", p.LastAttemptDate.UnixNano())
		}
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func levelFromCache(levelID string, fields map[string]string) (domain.LevelProgress, bool) {
	total, err1 := strconv.Atoi(fields["total"])
	correct, err2 := strconv.Atoi(fields["correct"])
	spent, err3 := strconv.Atoi(fields["time"])
	if err1 != nil || err2 != nil || err3 != nil {
		return domain.LevelProgress{}, false
	}
	lp := domain.LevelProgress{
		LevelID:         levelID,
		IsCompleted:     fields["completed"] == "1",
		TotalAttempts:   total,
		CorrectAttempts: correct,
		TotalTimeSpent:  spent,
		RecentAttempts:  []domain.Attempt{},
	}
	if raw, ok := fields["last"]; ok {
		if ns, err := strconv.ParseInt(raw, 10, 64); err == nil {
			last := time.Unix(0, ns).UTC()
			lp.LastAttemptDate = &last
		}
	}
	if raw := fields["recent"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &lp.RecentAttempts)
	}
	return lp, true
}

func (s *ProgressStore) progressKey(playerID, levelID string) string {
	return "progress:" + playerID + ":" + levelID
}

func (s *ProgressStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
