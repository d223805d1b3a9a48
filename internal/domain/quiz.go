package domain

import (
	"fmt"
	"time"
)

// Quiz is an ordered, non-empty set of questions plus display metadata.
// Immutable after construction; one quiz may back several concurrent
// sessions read-only.
type Quiz struct {
	id          string
	title       string
	description string
	questions   []Question
	createdAt   time.Time
}

// NewQuiz validates and builds a quiz. A zero createdAt defaults to now.
func NewQuiz(id, title, description string, questions []Question, createdAt time.Time) (*Quiz, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz %q: %w", title, ErrNoQuestions)
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &Quiz{
		id:          id,
		title:       title,
		description: description,
		questions:   qs,
		createdAt:   createdAt,
	}, nil
}

func (q *Quiz) ID() string           { return q.id }
func (q *Quiz) Title() string        { return q.title }
func (q *Quiz) Description() string  { return q.description }
func (q *Quiz) CreatedAt() time.Time { return q.createdAt }

// SetID is called by repositories after insert assigns a persistent id.
func (q *Quiz) SetID(id string) { q.id = id }

// QuestionCount returns the number of questions.
func (q *Quiz) QuestionCount() int { return len(q.questions) }

// QuestionAt returns the question at index i, or false if out of range.
func (q *Quiz) QuestionAt(i int) (Question, bool) {
	if i < 0 || i >= len(q.questions) {
		return nil, false
	}
	return q.questions[i], true
}

// Questions returns the ordered questions. Callers must treat the slice
// as read-only.
func (q *Quiz) Questions() []Question { return q.questions }
