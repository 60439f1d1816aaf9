package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-progress-service/internal/app"
)

type sessionEntry struct {
	session *app.SessionController
	refs    int
}

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Controllers live in a local map since their timers and subscribers are in-process.
// Redis holds a liveness marker per player with the controller id. The marker is
// rewritten with a fresh TTL whenever the session is acquired or looked up and is
// deleted when the session goes away.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) Acquire(playerID string, create func() *app.SessionController) *app.SessionController {
	s.mu.Lock()
	entry := s.entryLocked(playerID, create)
	entry.refs++
	s.mu.Unlock()
	s.touch(playerID, entry.session)
	return entry.session
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.SessionController) *app.SessionController {
	s.mu.Lock()
	entry := s.entryLocked(playerID, create)
	s.mu.Unlock()
	s.touch(playerID, entry.session)
	return entry.session
}

func (s *SessionStore) Get(playerID string) (*app.SessionController, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[playerID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(playerID, entry.session)
	return entry.session, true
}

func (s *SessionStore) Release(playerID string) {
	s.mu.Lock()
	entry, ok := s.sessions[playerID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if entry.refs > 0 {
		entry.refs--
	}
	if entry.refs > 0 || entry.session.HasSubscribers() {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, playerID)
	s.mu.Unlock()

	entry.session.Dispose()
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

func (s *SessionStore) entryLocked(playerID string, create func() *app.SessionController) *sessionEntry {
	if entry, ok := s.sessions[playerID]; ok {
		return entry
	}
	entry := &sessionEntry{session: create()}
	s.sessions[playerID] = entry
	return entry
}

// touch rewrites the liveness marker; failures are ignored.
func (s *SessionStore) touch(playerID string, session *app.SessionController) {
	_ = s.client.Set(context.Background(), s.key(playerID), session.ID(), s.ttl).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "game:session:" + playerID
}
