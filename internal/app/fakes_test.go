package app

import (
	"context"
	"sync"

	"quiz-progress-service/internal/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	attempts map[string][]domain.Attempt
	levels   map[string]map[string][]domain.Attempt
	fetches  int
	forces   []bool
	fetchErr error
	// entered/release, when set, make FetchProgress block until release is closed.
	entered chan struct{}
	release chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		attempts: make(map[string][]domain.Attempt),
		levels:   make(map[string]map[string][]domain.Attempt),
	}
}

func (f *fakeStore) FetchProgress(ctx context.Context, playerID, levelID string, force bool) (domain.ProgressResult, error) {
	f.mu.Lock()
	f.fetches++
	f.forces = append(f.forces, force)
	entered, release := f.entered, f.release
	err := f.fetchErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	attempts := f.levels[playerID][levelID]
	if len(attempts) == 0 {
		return domain.NoProgress{}, nil
	}
	lp := domain.LevelProgress{LevelID: levelID, TotalAttempts: len(attempts)}
	for _, a := range attempts {
		lp.TotalTimeSpent += a.TimeSpent
	}
	return domain.SingleLevelProgress{Progress: lp}, nil
}

func (f *fakeStore) UpdateProgress(_ context.Context, playerID, levelID string, attempt domain.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[playerID] = append(f.attempts[playerID], attempt)
	if levelID == "" {
		return nil
	}
	if f.levels[playerID] == nil {
		f.levels[playerID] = make(map[string][]domain.Attempt)
	}
	f.levels[playerID][levelID] = append(f.levels[playerID][levelID], attempt)
	return nil
}

func (f *fakeStore) Attempts(_ context.Context, playerID string) ([]domain.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Attempt(nil), f.attempts[playerID]...), nil
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// forcedFetches reports the force argument of every FetchProgress call so far.
func (f *fakeStore) forcedFetches() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.forces...)
}

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int)}
}

func (l *fakeLedger) EnsureAccount(_ context.Context, playerID string, initial int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[playerID]; !ok {
		l.balances[playerID] = initial
	}
	return nil
}

func (l *fakeLedger) Balance(_ context.Context, playerID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[playerID], nil
}

func (l *fakeLedger) Debit(_ context.Context, playerID string, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[playerID] < amount {
		return l.balances[playerID], domain.ErrInsufficientFunds
	}
	l.balances[playerID] -= amount
	return l.balances[playerID], nil
}

func (l *fakeLedger) Credit(_ context.Context, playerID string, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[playerID] += amount
	return l.balances[playerID], nil
}

type fakeSettings struct {
	mu     sync.Mutex
	values map[string]bool
}

func (s *fakeSettings) GetBool(_ context.Context, playerID, key string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[playerID+"/"+key]
	return v, ok, nil
}

func (s *fakeSettings) SetBool(_ context.Context, playerID, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]bool)
	}
	s.values[playerID+"/"+key] = value
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*SessionController
	refs     map[string]int
}

func (r *fakeSessions) Acquire(playerID string, create func() *SessionController) *SessionController {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getOrCreateLocked(playerID, create)
	r.refs[playerID]++
	return c
}

func (r *fakeSessions) GetOrCreate(playerID string, create func() *SessionController) *SessionController {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(playerID, create)
}

func (r *fakeSessions) getOrCreateLocked(playerID string, create func() *SessionController) *SessionController {
	if r.sessions == nil {
		r.sessions = make(map[string]*SessionController)
		r.refs = make(map[string]int)
	}
	if c, ok := r.sessions[playerID]; ok {
		return c
	}
	c := create()
	r.sessions[playerID] = c
	return c
}

func (r *fakeSessions) Get(playerID string) (*SessionController, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[playerID]
	return c, ok
}

func (r *fakeSessions) Release(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[playerID]
	if !ok {
		return
	}
	if r.refs[playerID] > 0 {
		r.refs[playerID]--
	}
	if r.refs[playerID] == 0 && !c.HasSubscribers() {
		c.Dispose()
		delete(r.sessions, playerID)
	}
}
