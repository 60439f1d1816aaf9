package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-progress-service/internal/domain"
)

// ControllerConfig holds the heuristic delays of the session lifecycle. None of them
// orders correctness-critical work; they only absorb bursts of repeated UI triggers.
type ControllerConfig struct {
	// SettleDelay separates Initialize from Start in Begin.
	SettleDelay time.Duration
	// RestartHold keeps the restart lock after a restart finishes.
	RestartHold time.Duration
	// TickInterval is the timer cadence used by Run.
	TickInterval time.Duration
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		SettleDelay:  50 * time.Millisecond,
		RestartHold:  1200 * time.Millisecond,
		TickInterval: time.Second,
	}
}

// SessionController drives one player's game session through idle → playing → completed.
// Every operation is safe to call from any goroutine; operations that are not allowed in
// the current state, or that lose a lock race, are dropped and report false.
type SessionController struct {
	id       string
	playerID string
	store    ProgressStore
	cfg      ControllerConfig
	log      *logrus.Entry
	hub      *Hub
	timer    *TimeAccountant

	initLock    *Lock
	restartLock *Lock

	mu          sync.Mutex
	status      domain.Status
	level       domain.Level
	levelID     string
	mode        domain.GameMode
	difficulty  domain.Difficulty
	initialized bool
	started     bool
	restarting  bool
	startTimer  *time.Timer
	holdTimer   *time.Timer
	holdRelease func()
	disposed    bool
	done        chan struct{}
}

func NewSessionController(playerID string, store ProgressStore, cfg ControllerConfig, log *logrus.Entry) *SessionController {
	id := uuid.NewString()
	hub := NewHub()
	return &SessionController{
		id:          id,
		playerID:    playerID,
		store:       store,
		cfg:         cfg,
		log:         log.WithFields(logrus.Fields{"player": playerID, "session": id}),
		hub:         hub,
		timer:       NewTimeAccountant(hub.OnTimeElapsedChange),
		initLock:    NewLock("initialization"),
		restartLock: NewLock("restart"),
		status:      domain.StatusIdle,
		done:        make(chan struct{}),
	}
}

func (c *SessionController) ID() string       { return c.id }
func (c *SessionController) PlayerID() string { return c.playerID }

// Listener exposes the hub so collaborators can publish into this session's stream.
func (c *SessionController) Listener() Listener { return c.hub }

// Done is closed by Dispose.
func (c *SessionController) Done() <-chan struct{} { return c.done }

// State returns the current snapshot.
func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Level returns the level data loaded by Initialize.
func (c *SessionController) Level() domain.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// TimeElapsed returns the seconds on the session timer.
func (c *SessionController) TimeElapsed() int {
	return c.timer.TimeElapsed()
}

// Subscribe streams session events, starting with the current state.
func (c *SessionController) Subscribe() (<-chan Event, func()) {
	state := c.State()
	return c.hub.Subscribe(
		Event{Type: EventSessionState, Session: &state},
		Event{Type: EventTimeElapsed, Seconds: state.TimeElapsed},
	)
}

// HasSubscribers reports whether anyone is still listening.
func (c *SessionController) HasSubscribers() bool {
	return c.hub.Len() > 0
}

// Initialize loads level data and leaves the session idle, ready to start.
// It runs at most once per level: repeated calls are no-ops until ResetForNewLevel.
func (c *SessionController) Initialize(level domain.Level, levelID string, mode domain.GameMode, difficulty domain.Difficulty) bool {
	release, ok := c.initLock.TryAcquire()
	if !ok {
		c.log.WithFields(logrus.Fields{"level": levelID, "lock": c.initLock.Name()}).Debug("initialize dropped: lock held")
		return false
	}
	defer release()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.disposed:
		return false
	case c.initialized:
		c.log.WithField("level", levelID).Debug("initialize dropped: already initialized")
		return false
	case c.status != domain.StatusIdle:
		c.log.WithFields(logrus.Fields{"level": levelID, "status": c.status}).Debug("initialize dropped: session not idle")
		return false
	}

	c.level = level
	c.levelID = levelID
	c.mode = mode
	c.difficulty = difficulty
	c.initialized = true
	c.status = domain.StatusIdle
	c.emitLocked()
	return true
}

// Start moves an initialized idle session to playing and starts the timer. It fires once
// per initialization and loses to a restart in flight.
func (c *SessionController) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restarting {
		c.log.Debug("start dropped: restart in flight")
		return false
	}
	if c.disposed || !c.initialized || c.started || c.status != domain.StatusIdle {
		c.log.WithFields(logrus.Fields{
			"status":      c.status,
			"initialized": c.initialized,
			"started":     c.started,
		}).Debug("start dropped")
		return false
	}
	c.startLocked()
	return true
}

// Begin prepares the session for level and schedules Start after the settle delay.
// A completed level can be begun again; any other repeat for the loaded level is dropped.
func (c *SessionController) Begin(level domain.Level) bool {
	c.mu.Lock()
	if c.status == domain.StatusCompleted {
		c.levelID = ""
	}
	c.mu.Unlock()
	c.ResetForNewLevel(level.ID, level.Mode)
	if !c.Initialize(level, level.ID, level.Mode, level.Difficulty) {
		return false
	}

	c.mu.Lock()
	if c.cfg.SettleDelay <= 0 {
		c.mu.Unlock()
		c.Start()
		return true
	}
	c.cancelStartLocked()
	c.startTimer = time.AfterFunc(c.cfg.SettleDelay, func() {
		c.Start()
	})
	c.mu.Unlock()
	return true
}

// Restart stops the session, reloads the persisted elapsed time for the current level and
// plays again. Only one restart runs at a time; the lock stays held for RestartHold after
// completion so trailing triggers are dropped too. A failed fetch restarts from zero.
func (c *SessionController) Restart(ctx context.Context) bool {
	c.mu.Lock()
	if c.disposed || !c.initialized {
		c.mu.Unlock()
		c.log.Debug("restart dropped: no initialized level")
		return false
	}
	c.mu.Unlock()

	release, ok := c.restartLock.TryAcquire()
	if !ok {
		c.log.WithField("lock", c.restartLock.Name()).Debug("restart dropped: lock held")
		return false
	}
	defer c.holdThenRelease(release)

	c.mu.Lock()
	c.cancelStartLocked()
	c.timer.ResetTimer()
	c.status = domain.StatusIdle
	c.started = false
	c.restarting = true
	levelID := c.levelID
	c.emitLocked()
	c.mu.Unlock()

	log := c.log.WithField("level", levelID)
	elapsed := 0
	result, err := c.store.FetchProgress(ctx, c.playerID, levelID, true)
	if err != nil {
		log.WithError(err).Warn("restart: progress fetch failed, restarting from zero")
	} else {
		elapsed = domain.TimeSpent(result)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.restarting = false
	if c.disposed || c.levelID != levelID {
		log.Info("restart abandoned: session moved on during fetch")
		return false
	}
	c.timer.SetTimeElapsed(elapsed)
	c.startLocked()
	log.WithField("elapsed", elapsed).Info("session restarted")
	return true
}

// Complete ends a playing session.
func (c *SessionController) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.status != domain.StatusPlaying {
		c.log.WithField("status", c.status).Debug("complete dropped: session not playing")
		return false
	}
	c.timer.ResetTimer()
	c.status = domain.StatusCompleted
	c.emitLocked()
	return true
}

// ResetForNewLevel clears the one-shot guards when levelID differs from the current level.
func (c *SessionController) ResetForNewLevel(levelID string, mode domain.GameMode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || levelID == c.levelID {
		return false
	}
	c.cancelStartLocked()
	c.timer.ResetTimer()
	c.timer.SetTimeElapsed(0)
	c.level = domain.Level{}
	c.levelID = levelID
	c.mode = mode
	c.difficulty = ""
	c.initialized = false
	c.started = false
	c.restarting = false
	c.status = domain.StatusIdle
	c.emitLocked()
	return true
}

// ClearElapsed zeroes the timer without changing whether it runs.
func (c *SessionController) ClearElapsed() {
	c.timer.SetTimeElapsed(0)
}

// Tick advances the timer by one second if it is running.
func (c *SessionController) Tick() bool {
	return c.timer.Tick()
}

// Run ticks the timer every TickInterval until ctx ends or the controller is disposed.
func (c *SessionController) Run(ctx context.Context) {
	interval := c.cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Dispose stops timers, releases held locks and closes subscriber channels.
func (c *SessionController) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.cancelStartLocked()
	if c.holdTimer != nil {
		c.holdTimer.Stop()
		c.holdTimer = nil
	}
	release := c.holdRelease
	c.holdRelease = nil
	c.timer.ResetTimer()
	close(c.done)
	c.mu.Unlock()

	if release != nil {
		release()
	}
	c.hub.Close()
	c.log.Debug("session disposed")
}

func (c *SessionController) startLocked() {
	c.status = domain.StatusPlaying
	c.started = true
	c.timer.StartTimer()
	c.emitLocked()
}

func (c *SessionController) cancelStartLocked() {
	if c.startTimer != nil {
		c.startTimer.Stop()
		c.startTimer = nil
	}
}

// holdThenRelease keeps the restart lock for RestartHold before releasing it.
func (c *SessionController) holdThenRelease(release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restarting = false
	if c.disposed || c.cfg.RestartHold <= 0 {
		release()
		return
	}
	c.holdRelease = release
	c.holdTimer = time.AfterFunc(c.cfg.RestartHold, func() {
		c.mu.Lock()
		c.holdRelease = nil
		c.holdTimer = nil
		c.mu.Unlock()
		release()
	})
}

func (c *SessionController) stateLocked() domain.SessionState {
	return domain.SessionState{
		Status:       c.status,
		LevelID:      c.levelID,
		GameMode:     c.mode,
		Difficulty:   c.difficulty,
		TimeElapsed:  c.timer.TimeElapsed(),
		TimerRunning: c.timer.Running(),
	}
}

func (c *SessionController) emitLocked() {
	c.hub.OnSessionStateChange(c.stateLocked())
}
