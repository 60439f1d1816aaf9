package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"quiz-progress-service/internal/catalog"
	"quiz-progress-service/internal/domain"
	"quiz-progress-service/internal/logging"
)

func newTestGame(t *testing.T, startingCoins int) (*GameService, *fakeStore, *fakeLedger) {
	t.Helper()
	idx, err := catalog.NewDefaultIndex()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	store := newFakeStore()
	ledger := newFakeLedger()
	svc := NewGameService(idx, &fakeSessions{}, store, ledger, &fakeSettings{}, GameConfig{
		Controller:       instantConfig(),
		StartingCoins:    startingCoins,
		CompletionReward: 10,
	}, logging.Discard())
	t.Cleanup(svc.Close)
	return svc, store, ledger
}

func TestGameServiceBeginUnknownLevel(t *testing.T) {
	svc, _, _ := newTestGame(t, 0)
	_, _, err := svc.Begin(context.Background(), "p1", "n-99")
	if !errors.Is(err, domain.ErrLevelNotFound) {
		t.Fatalf("expected ErrLevelNotFound, got %v", err)
	}
	if _, err := svc.Session("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected no session to be opened, got %v", err)
	}
}

func TestGameServiceBeginOpensSessionAndAccount(t *testing.T) {
	svc, _, ledger := newTestGame(t, 25)
	ctx := context.Background()

	level, ok, err := svc.Begin(ctx, "p1", "n-5")
	if err != nil || !ok {
		t.Fatalf("begin failed: ok=%v err=%v", ok, err)
	}
	if level.Title != "Dates and years" || level.Difficulty != domain.DifficultyHard {
		t.Fatalf("unexpected level %+v", level)
	}
	c, err := svc.Session("p1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	waitFor(t, "playing", func() bool { return c.State().Status == domain.StatusPlaying })

	if bal, _ := ledger.Balance(ctx, "p1"); bal != 25 {
		t.Fatalf("expected starting balance 25, got %d", bal)
	}
	if _, err := svc.Open(ctx, "  "); !errors.Is(err, domain.ErrInvalidPlayer) {
		t.Fatalf("expected ErrInvalidPlayer, got %v", err)
	}
}

func TestGameServiceRecordAttemptPublishesProgress(t *testing.T) {
	svc, store, _ := newTestGame(t, 0)
	ctx := context.Background()
	if _, _, err := svc.Begin(ctx, "p1", "n-5"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	c, _ := svc.Session("p1")
	events, cancel := c.Subscribe()
	defer cancel()

	first, err := svc.RecordAttempt(ctx, "p1", "n-5", false, 40)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	second, err := svc.RecordAttempt(ctx, "p1", "n-5", true, 20)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.AttemptNumber != 1 || second.AttemptNumber != 2 {
		t.Fatalf("unexpected attempt numbers %d, %d", first.AttemptNumber, second.AttemptNumber)
	}
	if _, err := svc.RecordAttempt(ctx, "p1", "999", true, 5); err != nil {
		t.Fatalf("unknown quiz should still be stored: %v", err)
	}

	var got *domain.ModeProgress
	timeout := time.After(2 * time.Second)
	for got == nil {
		select {
		case ev := <-events:
			if ev.Type == EventProgress {
				got = ev.Progress
			}
		case <-timeout:
			t.Fatalf("no progress event")
		}
	}
	if got.Mode != "numbers" {
		t.Fatalf("expected numbers progress, got %q", got.Mode)
	}

	res, err := store.FetchProgress(ctx, "p1", "n-5", true)
	if err != nil || domain.TimeSpent(res) != 60 {
		t.Fatalf("expected 60s persisted for n-5, got %v (%v)", domain.TimeSpent(res), err)
	}

	ov, err := svc.Overview(ctx, "p1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Unclassified != 1 {
		t.Fatalf("expected one unclassified attempt, got %d", ov.Unclassified)
	}
	mp, err := svc.Progress(ctx, "p1", "numbers")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if mp.CompletedLevels != 1 || mp.TotalAttempts != 2 || mp.CorrectAttempts != 1 {
		t.Fatalf("unexpected mode progress %+v", mp)
	}
	if _, err := svc.Progress(ctx, "p1", "chess"); !errors.Is(err, domain.ErrModeNotFound) {
		t.Fatalf("expected ErrModeNotFound, got %v", err)
	}
}

func TestGameServicePurchaseReset(t *testing.T) {
	svc, _, ledger := newTestGame(t, 8)
	ctx := context.Background()
	if _, _, err := svc.Begin(ctx, "p1", "t-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	c, _ := svc.Session("p1")
	c.timer.SetTimeElapsed(45)

	quote, err := svc.QuoteReset("p1")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.CoinCost != 10 || quote.Label != "30 seconds to 1 minute" {
		t.Fatalf("unexpected quote %+v", quote)
	}

	if _, err := svc.PurchaseReset(ctx, "p1"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if c.TimeElapsed() != 45 {
		t.Fatalf("failed purchase must keep elapsed, got %d", c.TimeElapsed())
	}

	_, _ = ledger.Credit(ctx, "p1", 10)
	p, err := svc.PurchaseReset(ctx, "p1")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if p.Balance != 8 || p.Quote.CoinCost != 10 {
		t.Fatalf("unexpected purchase %+v", p)
	}
	if c.TimeElapsed() != 0 {
		t.Fatalf("expected elapsed cleared, got %d", c.TimeElapsed())
	}
}

func TestGameServiceCompleteCreditsReward(t *testing.T) {
	svc, _, _ := newTestGame(t, 0)
	ctx := context.Background()
	if _, _, err := svc.Begin(ctx, "p1", "l-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	c, _ := svc.Session("p1")
	waitFor(t, "playing", func() bool { return c.State().Status == domain.StatusPlaying })

	ok, err := svc.Complete(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("complete failed: ok=%v err=%v", ok, err)
	}
	ok, _ = svc.Complete(ctx, "p1")
	if ok {
		t.Fatalf("second complete must be dropped")
	}

	d, err := svc.Dashboard(ctx, "p1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Coins != 10 {
		t.Fatalf("expected one reward, got %d coins", d.Coins)
	}
	if len(d.Overview.Modes) != 3 {
		t.Fatalf("expected three modes, got %d", len(d.Overview.Modes))
	}
}

func TestGameServiceSettings(t *testing.T) {
	svc, _, _ := newTestGame(t, 0)
	ctx := context.Background()

	v, err := svc.Setting(ctx, "p1", "sound")
	if err != nil || !v {
		t.Fatalf("expected default sound on, got %v (%v)", v, err)
	}
	if err := svc.SetSetting(ctx, "p1", "sound", false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := svc.Setting(ctx, "p1", "sound"); v {
		t.Fatalf("expected sound off")
	}
	if _, err := svc.Setting(ctx, "p1", "coins"); !errors.Is(err, domain.ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	if err := svc.SetSetting(ctx, "p1", "coins", true); !errors.Is(err, domain.ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestGameServiceLeaveDisposesIdleSession(t *testing.T) {
	svc, _, _ := newTestGame(t, 0)
	c, err := svc.Open(context.Background(), "p1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, cancel := c.Subscribe()
	svc.Leave("p1")
	if _, err := svc.Session("p1"); err != nil {
		t.Fatalf("session with a subscriber must survive leave")
	}

	cancel()
	svc.Leave("p1")
	if _, err := svc.Session("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected controller disposed")
	}
}

func TestGameServiceLeaveKeepsSessionOfOtherConnection(t *testing.T) {
	svc, _, _ := newTestGame(t, 0)
	ctx := context.Background()

	first, err := svc.Open(ctx, "p1")
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	_, cancelFirst := first.Subscribe()
	second, err := svc.Open(ctx, "p1")
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	if second != first {
		t.Fatalf("expected both connections to share the controller")
	}

	// the first connection goes away before the second has subscribed
	cancelFirst()
	svc.Leave("p1")

	events, cancel := second.Subscribe()
	defer cancel()
	if _, ok := <-events; !ok {
		t.Fatalf("expected an open event stream for the remaining connection")
	}
	if _, _, err := svc.Begin(ctx, "p1", "n-5"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	current, err := svc.Session("p1")
	if err != nil || current != second {
		t.Fatalf("expected the registry to keep the shared controller, got %v", err)
	}
	waitFor(t, "playing", func() bool { return second.State().Status == domain.StatusPlaying })

	cancel()
	svc.Leave("p1")
	select {
	case <-second.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected controller disposed after the last leave")
	}
}

func TestGameServiceConcurrentAttemptsGetDistinctNumbers(t *testing.T) {
	svc, _, _ := newTestGame(t, 0)
	ctx := context.Background()

	const n = 20
	numbers := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := svc.RecordAttempt(ctx, "p1", "n-5", false, 10)
			if err != nil {
				t.Errorf("record: %v", err)
				return
			}
			numbers[i] = a.AttemptNumber
		}(i)
	}
	wg.Wait()

	sort.Ints(numbers)
	for i, got := range numbers {
		if got != i+1 {
			t.Fatalf("expected attempt numbers 1..%d, got %v", n, numbers)
		}
	}
}
