// Package quizdoc maps stored quiz documents to domain entities and
// back. The same document shape is stored as JSONB in Postgres and as
// BSON in Mongo, so both drivers share this mapper.
package quizdoc

import (
	"fmt"
	"time"

	"live-quiz-service/internal/domain"
)

// Document is the stored form of a quiz.
type Document struct {
	ID          string             `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Questions   []QuestionDocument `json:"questions" bson:"questions"`
	CreatedAt   time.Time          `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// QuestionDocument is the stored form of one question. The question_type
// discriminator decides which of the variant fields are meaningful.
type QuestionDocument struct {
	ID               string   `json:"id,omitempty" bson:"id,omitempty"`
	Type             string   `json:"question_type" bson:"question_type"`
	Text             string   `json:"text" bson:"text"`
	TimeLimitSeconds int      `json:"time_limit_seconds" bson:"time_limit_seconds"`
	Options          []string `json:"options,omitempty" bson:"options,omitempty"`
	CorrectIndex     int      `json:"correct_index" bson:"correct_index"`
	CorrectAnswer    bool     `json:"correct_answer" bson:"correct_answer"`
}

// ToQuiz builds the domain aggregate from a stored document. Construction
// validation applies, so a malformed document is rejected here rather
// than surfacing mid-game.
func ToQuiz(doc Document) (*domain.Quiz, error) {
	questions := make([]domain.Question, 0, len(doc.Questions))
	for i, qd := range doc.Questions {
		q, err := toQuestion(qd)
		if err != nil {
			return nil, fmt.Errorf("quiz %q question %d: %w", doc.ID, i, err)
		}
		questions = append(questions, q)
	}
	return domain.NewQuiz(doc.ID, doc.Title, doc.Description, questions, doc.CreatedAt)
}

func toQuestion(qd QuestionDocument) (domain.Question, error) {
	limit := qd.TimeLimitSeconds
	if limit <= 0 {
		limit = domain.DefaultTimeLimitSeconds
	}
	switch qd.Type {
	case domain.QuestionTypeChoice:
		return domain.NewChoiceQuestion(qd.ID, qd.Text, qd.Options, qd.CorrectIndex, limit)
	case domain.QuestionTypeTrueFalse:
		return domain.NewTrueFalseQuestion(qd.ID, qd.Text, qd.CorrectAnswer, limit)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownQuestionType, qd.Type)
	}
}

// FromQuiz serializes the aggregate for insert/update.
func FromQuiz(quiz *domain.Quiz) Document {
	questions := make([]QuestionDocument, 0, quiz.QuestionCount())
	for _, q := range quiz.Questions() {
		questions = append(questions, fromQuestion(q))
	}
	return Document{
		ID:          quiz.ID(),
		Title:       quiz.Title(),
		Description: quiz.Description(),
		Questions:   questions,
		CreatedAt:   quiz.CreatedAt(),
	}
}

func fromQuestion(q domain.Question) QuestionDocument {
	doc := QuestionDocument{
		ID:               q.ID(),
		Type:             q.Type(),
		Text:             q.Text(),
		TimeLimitSeconds: q.TimeLimitSeconds(),
	}
	switch v := q.(type) {
	case *domain.ChoiceQuestion:
		doc.Options = v.Options()
		doc.CorrectIndex = v.CorrectIndex()
	case *domain.TrueFalseQuestion:
		doc.CorrectAnswer = v.CorrectAnswer()
	}
	return doc
}
