package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/game"
)

// SessionStore is a Redis-aware implementation of app.SessionStore.
// Notes:
//   - Sessions themselves stay in-process: the state machine and its
//     lock cannot be shared across instances without an actor layer.
//   - Redis marks session liveness per PIN, which also reserves the PIN
//     across instances and could back cross-instance pub/sub later.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*game.Session),
	}
}

func (s *SessionStore) Save(pin string, session *game.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[pin] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(pin), session.Quiz().ID(), s.ttl).Err()
}

// SaveIfAbsent reserves the PIN atomically. The SETNX marker extends
// the reservation across instances; a Redis error degrades to the
// in-process check rather than refusing the game.
func (s *SessionStore) SaveIfAbsent(pin string, session *game.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.sessions[pin]; taken {
		return false
	}
	reserved, err := s.client.SetNX(context.Background(), s.key(pin), session.Quiz().ID(), s.ttl).Result()
	if err == nil && !reserved {
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
	s.deleteLocked(pin)
}

func (s *SessionStore) DeleteIfEmpty(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[pin]
	if !ok {
		return
	}
	if session.IsEmpty() {
		s.deleteLocked(pin)
	}
}

func (s *SessionStore) deleteLocked(pin string) {
	delete(s.sessions, pin)
	_ = s.client.Del(context.Background(), s.key(pin)).Err()
}

func (s *SessionStore) key(pin string) string {
	return "game:session:" + pin
}
