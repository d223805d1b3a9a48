package memory

import (
	"sync"

	"live-quiz-service/internal/game"
)

// SessionStore is an in-memory implementation of app.SessionStore keyed
// by session PIN.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*game.Session),
	}
}

func (s *SessionStore) Save(pin string, session *game.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[pin] = session
}

// SaveIfAbsent reserves the PIN atomically; false means it is taken.
func (s *SessionStore) SaveIfAbsent(pin string, session *game.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.sessions[pin]; taken {
		return false
	}
	s.sessions[pin] = session
	return true
}

func (s *SessionStore) Get(pin string) (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[pin]
	return session, ok
}

func (s *SessionStore) Delete(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, pin)
}

func (s *SessionStore) DeleteIfEmpty(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[pin]
	if !ok {
		return
	}
	if session.IsEmpty() {
		delete(s.sessions, pin)
	}
}
