package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quiz-progress-service/internal/domain"
	"quiz-progress-service/internal/economy"
	"quiz-progress-service/internal/progress"
)

// LevelCatalog is the read side of the content catalog the game needs.
type LevelCatalog interface {
	progress.Catalog
	Level(levelID string) (domain.Level, bool)
}

// SettingDefaults lists the supported settings and their values before a player changes them.
var SettingDefaults = map[string]bool{
	"sound":     true,
	"music":     true,
	"vibration": true,
}

type GameConfig struct {
	Controller       ControllerConfig
	StartingCoins    int
	CompletionReward int
	Prices           economy.Table
}

// Dashboard is the combined progress and wallet view of one player.
type Dashboard struct {
	Overview progress.Overview `json:"overview"`
	Coins    int               `json:"coins"`
}

// Purchase is the outcome of a paid timer reset.
type Purchase struct {
	Quote   economy.Quote `json:"quote"`
	Balance int           `json:"balance"`
}

// GameService coordinates sessions, progress, coins and settings for all players.
type GameService struct {
	catalog  LevelCatalog
	sessions SessionRepository
	store    ProgressStore
	ledger   CoinLedger
	settings SettingsStore
	progress *ProgressService
	cfg      GameConfig
	log      *logrus.Entry
	now      func() time.Time

	// attemptLocks holds one *sync.Mutex per player so attempt numbering is serialized.
	attemptLocks sync.Map

	runCtx context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

func NewGameService(
	c LevelCatalog,
	sessions SessionRepository,
	store ProgressStore,
	ledger CoinLedger,
	settings SettingsStore,
	cfg GameConfig,
	log *logrus.Entry,
) *GameService {
	if cfg.Prices == nil {
		cfg.Prices = economy.DefaultTable
	}
	ctx, stop := context.WithCancel(context.Background())
	return &GameService{
		catalog:  c,
		sessions: sessions,
		store:    store,
		ledger:   ledger,
		settings: settings,
		progress: NewProgressService(c, store, log),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		runCtx:   ctx,
		stop:     stop,
	}
}

// Open returns the player's session for a connected client, creating it and its account
// on first use. Every Open must be paired with a Leave.
func (s *GameService) Open(ctx context.Context, playerID string) (*SessionController, error) {
	playerID, err := s.openAccount(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.sessions.Acquire(playerID, s.newController(playerID)), nil
}

func (s *GameService) openAccount(ctx context.Context, playerID string) (string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", domain.ErrInvalidPlayer
	}
	if err := s.ledger.EnsureAccount(ctx, playerID, s.cfg.StartingCoins); err != nil {
		return "", fmt.Errorf("open account for %s: %w", playerID, err)
	}
	return playerID, nil
}

func (s *GameService) newController(playerID string) func() *SessionController {
	return func() *SessionController {
		c := NewSessionController(playerID, s.store, s.cfg.Controller, s.log)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.Run(s.runCtx)
		}()
		return c
	}
}

func (s *GameService) Session(playerID string) (*SessionController, error) {
	c, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return c, nil
}

// Leave releases the reference taken by Open. The session is dropped when it was the
// last one and nobody is subscribed anymore.
func (s *GameService) Leave(playerID string) {
	s.sessions.Release(strings.TrimSpace(playerID))
}

// Begin initializes levelID for the player and starts it after the settle delay.
// A repeated begin for the level already loaded reports false.
func (s *GameService) Begin(ctx context.Context, playerID, levelID string) (domain.Level, bool, error) {
	level, ok := s.catalog.Level(levelID)
	if !ok {
		return domain.Level{}, false, fmt.Errorf("%w: %q", domain.ErrLevelNotFound, levelID)
	}
	playerID, err := s.openAccount(ctx, playerID)
	if err != nil {
		return domain.Level{}, false, err
	}
	c := s.sessions.GetOrCreate(playerID, s.newController(playerID))
	return level, c.Begin(level), nil
}

func (s *GameService) Restart(ctx context.Context, playerID string) (bool, error) {
	c, err := s.Session(playerID)
	if err != nil {
		return false, err
	}
	return c.Restart(ctx), nil
}

// Complete ends the player's level and credits the completion reward.
func (s *GameService) Complete(ctx context.Context, playerID string) (bool, error) {
	c, err := s.Session(playerID)
	if err != nil {
		return false, err
	}
	if !c.Complete() {
		return false, nil
	}
	if s.cfg.CompletionReward > 0 {
		if _, err := s.ledger.Credit(ctx, playerID, s.cfg.CompletionReward); err != nil {
			return true, fmt.Errorf("credit completion reward: %w", err)
		}
	}
	return true, nil
}

// RecordAttempt appends an answer to the player's history. Quiz ids the catalog does not
// know are still stored; they show up as unclassified in the progress overview.
func (s *GameService) RecordAttempt(ctx context.Context, playerID, quizID string, correct bool, timeSpent int) (domain.Attempt, error) {
	if strings.TrimSpace(playerID) == "" {
		return domain.Attempt{}, domain.ErrInvalidPlayer
	}
	if timeSpent < 0 {
		timeSpent = 0
	}
	mu, _ := s.attemptLocks.LoadOrStore(playerID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	history, err := s.store.Attempts(ctx, playerID)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempts for %s: %w", playerID, err)
	}

	levelID := ""
	entry, known := s.catalog.Lookup(quizID)
	if known {
		levelID = entry.LevelID
	}
	number := 1
	for _, a := range history {
		if a.QuizID == quizID {
			number++
		}
	}
	attempt := domain.Attempt{
		QuizID:        quizID,
		AttemptedAt:   s.now().UTC(),
		IsCorrect:     correct,
		TimeSpent:     timeSpent,
		AttemptNumber: number,
	}
	if err := s.store.UpdateProgress(ctx, playerID, levelID, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("save attempt: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"player": playerID, "quiz": quizID})
	if !known {
		log.Warn("attempt recorded for quiz outside the catalog")
		return attempt, nil
	}
	if c, ok := s.sessions.Get(playerID); ok {
		if _, err := s.progress.Publish(ctx, playerID, entry.Mode, c.Listener()); err != nil {
			log.WithError(err).Warn("progress refresh failed")
		}
	}
	return attempt, nil
}

// Progress computes the mode aggregate and, when the player has a session, publishes it.
func (s *GameService) Progress(ctx context.Context, playerID string, mode domain.GameMode) (domain.ModeProgress, error) {
	if c, ok := s.sessions.Get(playerID); ok {
		return s.progress.Publish(ctx, playerID, mode, c.Listener())
	}
	return s.progress.ModeProgress(ctx, playerID, mode)
}

func (s *GameService) Overview(ctx context.Context, playerID string) (progress.Overview, error) {
	return s.progress.Overview(ctx, playerID)
}

// Dashboard loads progress and balance concurrently.
func (s *GameService) Dashboard(ctx context.Context, playerID string) (Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov, err := s.progress.Overview(gctx, playerID)
		out.Overview = ov
		return err
	})
	g.Go(func() error {
		coins, err := s.ledger.Balance(gctx, playerID)
		out.Coins = coins
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}

// QuoteReset prices a reset of the player's current elapsed time.
func (s *GameService) QuoteReset(playerID string) (economy.Quote, error) {
	c, err := s.Session(playerID)
	if err != nil {
		return economy.Quote{}, err
	}
	return s.cfg.Prices.Quote(c.TimeElapsed()), nil
}

// PurchaseReset charges the quoted price and zeroes the session timer. The ledger error
// is returned unchanged when the player cannot pay, and the timer keeps its value.
func (s *GameService) PurchaseReset(ctx context.Context, playerID string) (Purchase, error) {
	c, err := s.Session(playerID)
	if err != nil {
		return Purchase{}, err
	}
	quote := s.cfg.Prices.Quote(c.TimeElapsed())
	balance, err := s.ledger.Debit(ctx, playerID, quote.CoinCost)
	if err != nil {
		return Purchase{}, err
	}
	c.ClearElapsed()
	s.log.WithFields(logrus.Fields{
		"player":  playerID,
		"seconds": quote.Seconds,
		"cost":    quote.CoinCost,
	}).Info("timer reset purchased")
	return Purchase{Quote: quote, Balance: balance}, nil
}

func (s *GameService) Balance(ctx context.Context, playerID string) (int, error) {
	return s.ledger.Balance(ctx, playerID)
}

// Setting returns the stored value of key, or its default when never set.
func (s *GameService) Setting(ctx context.Context, playerID, key string) (bool, error) {
	def, ok := SettingDefaults[key]
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownSetting, key)
	}
	v, found, err := s.settings.GetBool(ctx, playerID, key)
	if err != nil {
		return false, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

func (s *GameService) SetSetting(ctx context.Context, playerID, key string, value bool) error {
	if _, ok := SettingDefaults[key]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSetting, key)
	}
	return s.settings.SetBool(ctx, playerID, key, value)
}

// Close stops the session tickers started by Open.
func (s *GameService) Close() {
	s.stop()
	s.wg.Wait()
}
