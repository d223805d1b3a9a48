package domain

import "fmt"

// Question type discriminators, used by the persistence mappers and the
// websocket payloads.
const (
	QuestionTypeChoice    = "choice"
	QuestionTypeTrueFalse = "true_false"
)

// DefaultTimeLimitSeconds is used when stored questions carry no limit.
const DefaultTimeLimitSeconds = 30

// Question is the capability surface shared by all question variants.
// Implementations are immutable after construction; the persistent ID is
// the one exception and is assigned by the repository on insert.
type Question interface {
	ID() string
	SetID(id string)
	Text() string
	TimeLimitSeconds() int
	Type() string
	// ValidateAnswer reports whether the submitted value is the correct
	// answer. The expected dynamic type depends on the variant; anything
	// else is simply wrong, never an error.
	ValidateAnswer(answer any) bool
}

type questionBase struct {
	id               string
	text             string
	timeLimitSeconds int
}

func (q *questionBase) ID() string            { return q.id }
func (q *questionBase) SetID(id string)       { q.id = id }
func (q *questionBase) Text() string          { return q.text }
func (q *questionBase) TimeLimitSeconds() int { return q.timeLimitSeconds }

// ChoiceQuestion is a multiple-choice question with a single correct
// option identified by index.
type ChoiceQuestion struct {
	questionBase
	options      []string
	correctIndex int
}

// NewChoiceQuestion validates and builds a choice question. The id may be
// empty for questions that have not been stored yet.
func NewChoiceQuestion(id, text string, options []string, correctIndex, timeLimitSeconds int) (*ChoiceQuestion, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("choice question %q: %w", text, ErrNoOptions)
	}
	if correctIndex < 0 || correctIndex >= len(options) {
		return nil, fmt.Errorf("choice question %q: correct index %d out of range [0,%d): %w",
			text, correctIndex, len(options), ErrCorrectIndexOutOfRange)
	}
	if timeLimitSeconds <= 0 {
		return nil, fmt.Errorf("choice question %q: %w", text, ErrInvalidTimeLimit)
	}
	opts := make([]string, len(options))
	copy(opts, options)
	return &ChoiceQuestion{
		questionBase: questionBase{id: id, text: text, timeLimitSeconds: timeLimitSeconds},
		options:      opts,
		correctIndex: correctIndex,
	}, nil
}

// Options returns the ordered option texts.
func (q *ChoiceQuestion) Options() []string {
	opts := make([]string, len(q.options))
	copy(opts, q.options)
	return opts
}

// CorrectIndex is the zero-based index of the correct option.
func (q *ChoiceQuestion) CorrectIndex() int { return q.correctIndex }

func (q *ChoiceQuestion) Type() string { return QuestionTypeChoice }

// ValidateAnswer accepts only an exact int index match.
func (q *ChoiceQuestion) ValidateAnswer(answer any) bool {
	idx, ok := answer.(int)
	return ok && idx == q.correctIndex
}

// TrueFalseQuestion has exactly two outcomes.
type TrueFalseQuestion struct {
	questionBase
	correctAnswer bool
}

// NewTrueFalseQuestion validates and builds a true/false question.
func NewTrueFalseQuestion(id, text string, correctAnswer bool, timeLimitSeconds int) (*TrueFalseQuestion, error) {
	if timeLimitSeconds <= 0 {
		return nil, fmt.Errorf("true/false question %q: %w", text, ErrInvalidTimeLimit)
	}
	return &TrueFalseQuestion{
		questionBase:  questionBase{id: id, text: text, timeLimitSeconds: timeLimitSeconds},
		correctAnswer: correctAnswer,
	}, nil
}

// CorrectAnswer is the expected boolean.
func (q *TrueFalseQuestion) CorrectAnswer() bool { return q.correctAnswer }

func (q *TrueFalseQuestion) Type() string { return QuestionTypeTrueFalse }

// ValidateAnswer accepts only an exact bool match.
func (q *TrueFalseQuestion) ValidateAnswer(answer any) bool {
	b, ok := answer.(bool)
	return ok && b == q.correctAnswer
}
