package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-progress-service/internal/domain"
	"quiz-progress-service/internal/infra/memory"
)

func TestProgressStoreCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	src := &countingSource{AttemptStore: memory.NewAttemptStore()}
	ctx := context.Background()
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	_ = src.Append(ctx, "p1", "n-5", domain.Attempt{QuizID: "n-5", AttemptedAt: at, TimeSpent: 70, AttemptNumber: 1})
	_ = src.Append(ctx, "p1", "n-5", domain.Attempt{QuizID: "n-5", AttemptedAt: at.Add(time.Minute), IsCorrect: true, TimeSpent: 50, AttemptNumber: 2})

	store := NewProgressStore(newClient(mr), src, time.Minute)

	first, err := store.FetchProgress(ctx, "p1", "n-5", false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if src.count() != 1 {
		t.Fatalf("expected source called once, got %d", src.count())
	}
	if !mr.Exists("progress:p1:n-5") {
		t.Fatalf("expected progress hash in redis")
	}

	// Second call should hit cache, source not incremented.
	second, err := store.FetchProgress(ctx, "p1", "n-5", false)
	if err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if src.count() != 1 {
		t.Fatalf("expected cache hit, source calls=%d", src.count())
	}

	a := first.(domain.SingleLevelProgress).Progress
	b, ok := second.(domain.SingleLevelProgress)
	if !ok {
		t.Fatalf("expected cached single level progress, got %T", second)
	}
	if b.Progress.TotalTimeSpent != 120 || b.Progress.CorrectAttempts != 1 || !b.Progress.IsCompleted {
		t.Fatalf("unexpected cached progress %+v", b.Progress)
	}
	if b.Progress.LastAttemptDate == nil || !b.Progress.LastAttemptDate.Equal(*a.LastAttemptDate) {
		t.Fatalf("expected last attempt date to survive the cache")
	}
	if len(b.Progress.RecentAttempts) != 2 || b.Progress.RecentAttempts[0].AttemptNumber != 2 {
		t.Fatalf("unexpected cached recent attempts %+v", b.Progress.RecentAttempts)
	}

	if _, err := store.FetchProgress(ctx, "p1", "n-5", true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if src.count() != 2 {
		t.Fatalf("expected forced fetch to bypass cache, calls=%d", src.count())
	}
}

func TestProgressStoreUpdateEvicts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	src := &countingSource{AttemptStore: memory.NewAttemptStore()}
	store := NewProgressStore(newClient(mr), src, time.Minute)
	ctx := context.Background()

	res, err := store.FetchProgress(ctx, "p1", "t-1", false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := res.(domain.NoProgress); !ok {
		t.Fatalf("expected NoProgress, got %T", res)
	}
	if _, ok := store.cached(ctx, "progress:p1:t-1", "t-1"); !ok {
		t.Fatalf("expected empty marker cached")
	}

	if err := store.UpdateProgress(ctx, "p1", "t-1", domain.Attempt{QuizID: "t-1", TimeSpent: 12}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists("progress:p1:t-1") {
		t.Fatalf("expected cache eviction on update")
	}
	res, _ = store.FetchProgress(ctx, "p1", "t-1", false)
	if domain.TimeSpent(res) != 12 {
		t.Fatalf("expected 12s after update, got %d", domain.TimeSpent(res))
	}

	all, _ := store.Attempts(ctx, "p1")
	if len(all) != 1 {
		t.Fatalf("expected one attempt, got %d", len(all))
	}
}

type countingSource struct {
	*memory.AttemptStore
	mu    sync.Mutex
	calls int
}

func (s *countingSource) LevelAttempts(ctx context.Context, playerID, levelID string) ([]domain.Attempt, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.AttemptStore.LevelAttempts(ctx, playerID, levelID)
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
