// Package game holds the live-session core: the lifecycle state machine
// and the Session monitor it drives.
package game

// Stable state names; other layers key websocket events off these.
const (
	StateLobby       = "lobby"
	StateQuestion    = "question"
	StateLeaderboard = "leaderboard"
	StateFinished    = "finished"
)

// State is one phase of a session's lifecycle. States hold no data; they
// only decide command legality and pick successors. Every method is
// invoked by the Session with its lock held, so implementations may use
// the session's locked helpers but must never call its public methods.
type State interface {
	Name() string
	// OnEnter and OnLeave run exactly once per transition into/out of
	// the state, between the swap steps of the transition protocol.
	OnEnter(s *Session)
	OnLeave(s *Session)
	// CanStartQuestion and CanGoNext gate the two host commands.
	CanStartQuestion(s *Session) bool
	CanGoNext(s *Session) bool
	// NextState picks the successor, or nil if none. It may move the
	// session's cursor but must not perform the transition itself.
	NextState(s *Session) State
}

// baseState supplies the default no-op/deny behavior.
type baseState struct{}

func (baseState) OnEnter(*Session)               {}
func (baseState) OnLeave(*Session)               {}
func (baseState) CanStartQuestion(*Session) bool { return false }
func (baseState) CanGoNext(*Session) bool        { return false }

// LobbyState: players join by PIN; the host starts the first question.
type LobbyState struct{ baseState }

func (LobbyState) Name() string { return StateLobby }

func (LobbyState) CanStartQuestion(*Session) bool { return true }

func (LobbyState) NextState(s *Session) State {
	// Unreachable given the quiz non-empty invariant, but a nil here is
	// a clean refusal rather than a broken transition.
	if s.quiz.QuestionCount() == 0 {
		return nil
	}
	return QuestionState{}
}

// QuestionState: a question is live and players may submit answers.
type QuestionState struct{ baseState }

func (QuestionState) Name() string { return StateQuestion }

// OnEnter clears the answered-set so every player may submit once for
// the question that just became current.
func (QuestionState) OnEnter(s *Session) { s.clearAnsweredLocked() }

func (QuestionState) CanGoNext(*Session) bool { return true }

func (QuestionState) NextState(*Session) State { return LeaderboardState{} }

// LeaderboardState: scores are on display. The repeat-or-finish decision
// lives here and nowhere else: it advances the cursor when another
// question exists, otherwise the session is done.
type LeaderboardState struct{ baseState }

func (LeaderboardState) Name() string { return StateLeaderboard }

func (LeaderboardState) CanGoNext(*Session) bool { return true }

func (LeaderboardState) NextState(s *Session) State {
	if s.hasNextQuestionLocked() {
		s.advanceCursorLocked()
		return QuestionState{}
	}
	return FinishedState{}
}

// FinishedState: terminal. No commands, no successor.
type FinishedState struct{ baseState }

func (FinishedState) Name() string { return StateFinished }

func (FinishedState) NextState(*Session) State { return nil }
