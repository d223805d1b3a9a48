package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
)

// SessionStore abstracts how live sessions are kept (in-memory, Redis-backed).
type SessionStore interface {
	// SaveIfAbsent atomically reserves the PIN; false means it is taken.
	SaveIfAbsent(pin string, session *game.Session) bool
	Get(pin string) (*game.Session, bool)
	Delete(pin string)
	DeleteIfEmpty(pin string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
}

// pinAttempts bounds the collision retry loop; with a six-digit space it
// only matters under absurd session counts.
const pinAttempts = 32

// GameService contains the host- and player-facing use cases.
type GameService struct {
	sessions SessionStore
	quizzes  QuizRepository

	mu     sync.Mutex
	rnd    *rand.Rand
	topics map[string]*topic
}

func NewGameService(store SessionStore, quizzes QuizRepository) *GameService {
	return &GameService{
		sessions: store,
		quizzes:  quizzes,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		topics:   make(map[string]*topic),
	}
}

// HostGame loads the quiz, allocates a PIN, and opens a session in the
// lobby. The returned PIN is what players join with. Reserving the PIN
// and publishing the session is one SaveIfAbsent, so two concurrent
// hosts can never end up sharing a PIN.
func (s *GameService) HostGame(ctx context.Context, quizID string) (string, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", err
	}

	for i := 0; i < pinAttempts; i++ {
		pin := s.randomPIN()
		session := game.NewSession(pin, quiz)
		if !s.sessions.SaveIfAbsent(pin, session) {
			continue
		}

		t := newTopic(session.Snapshot)
		session.SetNotify(t.wake)
		s.mu.Lock()
		s.topics[pin] = t
		s.mu.Unlock()
		return pin, nil
	}
	return "", fmt.Errorf("could not allocate a free pin after %d attempts", pinAttempts)
}

func (s *GameService) randomPIN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%06d", s.rnd.Intn(1000000))
}

// Join registers or reconnects a player. A known connection ID keeps its
// score and only refreshes the nickname.
func (s *GameService) Join(_ context.Context, pin, connectionID, nickname string) (game.View, error) {
	session, ok := s.sessions.Get(pin)
	if !ok {
		return game.View{}, domain.ErrSessionNotFound
	}
	session.JoinPlayer(connectionID, nickname)
	s.wakeTopic(pin)
	return session.Snapshot(), nil
}

// Leave removes a player; an already-gone player is a no-op. The session
// is dropped once the last player leaves a finished game.
func (s *GameService) Leave(_ context.Context, pin, connectionID string) {
	session, ok := s.sessions.Get(pin)
	if !ok {
		return
	}
	session.RemovePlayer(connectionID)
	s.wakeTopic(pin)
	if session.IsEmpty() && session.StateName() == game.StateFinished {
		s.sessions.DeleteIfEmpty(pin)
		s.closeTopic(pin)
	}
}

// EndGame tears a session down regardless of phase (host abandonment).
func (s *GameService) EndGame(_ context.Context, pin string) {
	s.sessions.Delete(pin)
	s.closeTopic(pin)
}

// SubmitAnswer records a player's answer for the current question. The
// duplicate guard and the award are atomic inside the session.
func (s *GameService) SubmitAnswer(_ context.Context, pin, connectionID string, answer any) (game.SubmissionResult, error) {
	session, ok := s.sessions.Get(pin)
	if !ok {
		return game.SubmissionResult{}, domain.ErrSessionNotFound
	}
	result, err := session.SubmitAnswer(connectionID, answer)
	if err != nil {
		return game.SubmissionResult{}, err
	}
	if result.Accepted {
		s.wakeTopic(pin)
	}
	return result, nil
}

// StartQuestion is the host command that starts the first question.
// A false return means the command was illegal in the current phase.
func (s *GameService) StartQuestion(_ context.Context, pin string) (bool, error) {
	session, ok := s.sessions.Get(pin)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	return session.TriggerStartQuestion(), nil
}

// Next is the host command that advances question -> leaderboard ->
// next question or finished.
func (s *GameService) Next(_ context.Context, pin string) (bool, error) {
	session, ok := s.sessions.Get(pin)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	return session.TriggerNext(), nil
}

// Snapshot returns a consistent picture of the session for one-off reads.
func (s *GameService) Snapshot(_ context.Context, pin string) (game.View, error) {
	session, ok := s.sessions.Get(pin)
	if !ok {
		return game.View{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Watch returns a channel of session snapshots, starting with the
// current one. The caller must invoke the cancel function to avoid leaks.
func (s *GameService) Watch(_ context.Context, pin string) (<-chan game.View, func(), error) {
	s.mu.Lock()
	t, ok := s.topics[pin]
	s.mu.Unlock()
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := t.subscribe()
	return ch, cancel, nil
}

func (s *GameService) wakeTopic(pin string) {
	s.mu.Lock()
	t, ok := s.topics[pin]
	s.mu.Unlock()
	if ok {
		t.wake()
	}
}

func (s *GameService) closeTopic(pin string) {
	s.mu.Lock()
	t, ok := s.topics[pin]
	delete(s.topics, pin)
	s.mu.Unlock()
	if ok {
		t.close()
	}
}
