package memory

import (
	"sync"

	"quiz-progress-service/internal/app"
)

type sessionEntry struct {
	session *app.SessionController
	refs    int
}

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) Acquire(playerID string, create func() *app.SessionController) *app.SessionController {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entryLocked(playerID, create)
	entry.refs++
	return entry.session
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.SessionController) *app.SessionController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryLocked(playerID, create).session
}

func (s *SessionStore) Get(playerID string) (*app.SessionController, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[playerID]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// Release disposes and forgets the session when the last reference goes and nobody
// is subscribed.
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
}

func (s *SessionStore) entryLocked(playerID string, create func() *app.SessionController) *sessionEntry {
	if entry, ok := s.sessions[playerID]; ok {
		return entry
	}
	entry := &sessionEntry{session: create()}
	s.sessions[playerID] = entry
	return entry
}
