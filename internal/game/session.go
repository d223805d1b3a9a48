package game

import (
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// PointsPerCorrect is the flat award for a correct answer. Time-weighted
// or partial scoring is deliberately out of scope.
const PointsPerCorrect = 100

// Session is one live playthrough of a quiz: the PIN, the players, the
// current-question cursor, and the lifecycle state. All mutating
// operations serialize on one mutex, so a submission is always evaluated
// against a single consistent state and the transition protocol is never
// observed half-done. The lock guards in-memory mutation only; nothing
// here performs I/O.
type Session struct {
	id        string
	pin       string
	quiz      *domain.Quiz
	createdAt time.Time
	now       func() time.Time

	mu       sync.Mutex
	players  map[string]*domain.Player
	cursor   int
	state    State
	answered map[string]struct{}
	notify   func()
}

// SubmissionResult reports the outcome of one answer submission.
// Accepted is false for duplicates and for submissions outside the
// question phase; neither is an error.
type SubmissionResult struct {
	Accepted   bool
	Correct    bool
	Awarded    int
	TotalScore int
}

// LeaderboardEntry is a snapshot row; ordered best-first.
type LeaderboardEntry struct {
	ConnectionID string `json:"connectionId"`
	Nickname     string `json:"nickname"`
	Score        int    `json:"score"`
}

// NewSession creates a session in the lobby state.
func NewSession(pin string, quiz *domain.Quiz) *Session {
	return NewSessionWithClock(pin, quiz, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(pin string, quiz *domain.Quiz, now func() time.Time) *Session {
	return &Session{
		pin:       pin,
		quiz:      quiz,
		createdAt: now(),
		now:       now,
		players:   make(map[string]*domain.Player),
		state:     LobbyState{},
		answered:  make(map[string]struct{}),
	}
}

func (s *Session) Pin() string          { return s.pin }
func (s *Session) Quiz() *domain.Quiz   { return s.quiz }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) ID() string           { return s.id }
func (s *Session) SetID(id string)      { s.id = id }

// StateName returns the current lifecycle phase tag.
func (s *Session) StateName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Name()
}

// SetNotify registers the single notification hook, invoked once after
// every successful transition. The hook runs inside the session's
// exclusion region and must not block; broadcast delivery belongs to the
// transport, asynchronously.
func (s *Session) SetNotify(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// AddPlayer registers a player keyed by connection ID. A reused
// connection ID is a reconnect: last writer wins.
func (s *Session) AddPlayer(p *domain.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ConnectionID()] = p
}

// RemovePlayer removes and returns the player, or false if absent
// (idempotent). Their pending answer mark goes with them so the
// answered-set stays a subset of the player map.
func (s *Session) RemovePlayer(connectionID string) (*domain.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[connectionID]
	if !ok {
		return nil, false
	}
	delete(s.players, connectionID)
	delete(s.answered, connectionID)
	return p, true
}

// PlayerCount returns the number of joined players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// IsEmpty reports whether no players remain.
func (s *Session) IsEmpty() bool { return s.PlayerCount() == 0 }

// RecordAnswer marks the connection as having answered the current
// question. Returns true only for the first submission since the
// question opened; this is the sole guard against double-scoring.
func (s *Session) RecordAnswer(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordAnswerLocked(connectionID)
}

func (s *Session) recordAnswerLocked(connectionID string) bool {
	if _, dup := s.answered[connectionID]; dup {
		return false
	}
	s.answered[connectionID] = struct{}{}
	return true
}

// HasAnsweredCurrentQuestion reports whether the connection already
// submitted for the question on display.
func (s *Session) HasAnsweredCurrentQuestion(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.answered[connectionID]
	return ok
}

// AnsweredCount returns the size of the current answered-set.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answered)
}

// CurrentQuestion returns the question at the cursor, or false before
// the first question starts and after the session finishes.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestionLocked()
}

func (s *Session) currentQuestionLocked() (domain.Question, bool) {
	switch s.state.Name() {
	case StateLobby, StateFinished:
		return nil, false
	}
	return s.quiz.QuestionAt(s.cursor)
}

// CurrentQuestionIndex returns the zero-based cursor.
func (s *Session) CurrentQuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// HasNextQuestion reports whether a question exists beyond the cursor.
func (s *Session) HasNextQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNextQuestionLocked()
}

// AdvanceToNextQuestion moves the cursor forward if a next question
// exists; otherwise it is a no-op returning false. In the normal flow
// only LeaderboardState calls this, through its locked helper.
func (s *Session) AdvanceToNextQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNextQuestionLocked() {
		return false
	}
	s.advanceCursorLocked()
	return true
}

func (s *Session) hasNextQuestionLocked() bool {
	return s.cursor+1 < s.quiz.QuestionCount()
}

func (s *Session) advanceCursorLocked() { s.cursor++ }

func (s *Session) clearAnsweredLocked() {
	s.answered = make(map[string]struct{})
}

// TriggerStartQuestion is the host command that starts the first
// question from the lobby. Returns whether a transition occurred.
func (s *Session) TriggerStartQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanStartQuestion(s) {
		return false
	}
	return s.advanceStateLocked()
}

// TriggerNext is the host command that moves question -> leaderboard and
// leaderboard -> next question or finished. Returns whether a transition
// occurred. The external question timer, when one exists, calls this
// same entry point.
func (s *Session) TriggerNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanGoNext(s) {
		return false
	}
	return s.advanceStateLocked()
}

// advanceStateLocked runs the transition protocol: successor, leave,
// swap, enter, notify, in that order, atomically under the session lock.
// Callers have already checked legality.
func (s *Session) advanceStateLocked() bool {
	next := s.state.NextState(s)
	if next == nil {
		return false
	}
	s.state.OnLeave(s)
	s.state = next
	s.state.OnEnter(s)
	if s.notify != nil {
		s.notify()
	}
	return true
}

// SubmitAnswer is the atomic player-submission path: one lock
// acquisition covers the state check, the duplicate guard, answer
// validation, and the score award, so a racing host transition can never
// tear a submission. Unknown players are an error; a duplicate or an
// out-of-phase submission is just Accepted=false.
func (s *Session) SubmitAnswer(connectionID string, answer any) (SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[connectionID]
	if !ok {
		return SubmissionResult{}, domain.ErrPlayerNotFound
	}
	question, ok := s.currentQuestionLocked()
	if !ok || s.state.Name() != StateQuestion {
		return SubmissionResult{TotalScore: player.Score()}, nil
	}
	if !s.recordAnswerLocked(connectionID) {
		return SubmissionResult{TotalScore: player.Score()}, nil
	}

	result := SubmissionResult{Accepted: true, TotalScore: player.Score()}
	if question.ValidateAnswer(answer) {
		if err := player.AddScore(PointsPerCorrect); err != nil {
			return SubmissionResult{}, err
		}
		result.Correct = true
		result.Awarded = PointsPerCorrect
		result.TotalScore = player.Score()
	}
	return result, nil
}

// JoinPlayer registers a player, creating one with a zero score or, on
// a reconnect, keeping the accumulated score and refreshing the name.
func (s *Session) JoinPlayer(connectionID, nickname string) *domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[connectionID]; ok {
		p.Rename(nickname)
		return p
	}
	p := domain.NewPlayer(connectionID, nickname, s.now())
	s.players[connectionID] = p
	return p
}

// View is a consistent point-in-time picture of the session, taken under
// one lock acquisition.
type View struct {
	State         string
	QuestionIndex int
	QuestionCount int
	Question      domain.Question
	Leaderboard   []LeaderboardEntry
}

// Snapshot captures the session for broadcast. The Question field is nil
// outside the question/leaderboard phases.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, _ := s.currentQuestionLocked()
	return View{
		State:         s.state.Name(),
		QuestionIndex: s.cursor,
		QuestionCount: s.quiz.QuestionCount(),
		Question:      question,
		Leaderboard:   s.leaderboardLocked(),
	}
}

// Leaderboard returns the scoreboard ordered by score descending, ties
// broken by earliest join, then nickname.
func (s *Session) Leaderboard() []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Session) leaderboardLocked() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(s.players))
	for _, p := range s.players {
		entries = append(entries, LeaderboardEntry{
			ConnectionID: p.ConnectionID(),
			Nickname:     p.Nickname(),
			Score:        p.Score(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		pi := s.players[entries[i].ConnectionID]
		pj := s.players[entries[j].ConnectionID]
		if !pi.JoinedAt().Equal(pj.JoinedAt()) {
			return pi.JoinedAt().Before(pj.JoinedAt())
		}
		return entries[i].Nickname < entries[j].Nickname
	})
	return entries
}
