package quizdoc_test

import (
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/quizdoc"
)

func TestToQuizMapsBothVariants(t *testing.T) {
	doc := quizdoc.Document{
		ID:    "quiz-1",
		Title: "mixed",
		Questions: []quizdoc.QuestionDocument{
			{
				ID:               "q1",
				Type:             domain.QuestionTypeChoice,
				Text:             "pick one",
				TimeLimitSeconds: 20,
				Options:          []string{"a", "b"},
				CorrectIndex:     1,
			},
			{
				ID:            "q2",
				Type:          domain.QuestionTypeTrueFalse,
				Text:          "yes or no",
				CorrectAnswer: true,
				// no time limit stored: the default applies
			},
		},
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	quiz, err := quizdoc.ToQuiz(doc)
	if err != nil {
		t.Fatalf("map quiz: %v", err)
	}
	if quiz.ID() != "quiz-1" || quiz.QuestionCount() != 2 {
		t.Fatalf("unexpected quiz: %s with %d questions", quiz.ID(), quiz.QuestionCount())
	}

	q1, _ := quiz.QuestionAt(0)
	choice, ok := q1.(*domain.ChoiceQuestion)
	if !ok {
		t.Fatalf("expected choice question, got %T", q1)
	}
	if !choice.ValidateAnswer(1) || choice.ValidateAnswer(0) {
		t.Fatalf("correct index lost in mapping")
	}

	q2, _ := quiz.QuestionAt(1)
	tf, ok := q2.(*domain.TrueFalseQuestion)
	if !ok {
		t.Fatalf("expected true/false question, got %T", q2)
	}
	if tf.TimeLimitSeconds() != domain.DefaultTimeLimitSeconds {
		t.Fatalf("expected default time limit, got %d", tf.TimeLimitSeconds())
	}
	if !tf.ValidateAnswer(true) {
		t.Fatalf("correct answer lost in mapping")
	}
}

func TestToQuizRejectsBadDocuments(t *testing.T) {
	_, err := quizdoc.ToQuiz(quizdoc.Document{
		ID: "quiz-1",
		Questions: []quizdoc.QuestionDocument{
			{Type: "essay", Text: "write a lot"},
		},
	})
	if !errors.Is(err, domain.ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}

	_, err = quizdoc.ToQuiz(quizdoc.Document{
		ID: "quiz-1",
		Questions: []quizdoc.QuestionDocument{
			{Type: domain.QuestionTypeChoice, Text: "q", Options: []string{"a"}, CorrectIndex: 3},
		},
	})
	if !errors.Is(err, domain.ErrCorrectIndexOutOfRange) {
		t.Fatalf("expected ErrCorrectIndexOutOfRange, got %v", err)
	}

	if _, err := quizdoc.ToQuiz(quizdoc.Document{ID: "quiz-1"}); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestFromQuizRoundTrip(t *testing.T) {
	choice, _ := domain.NewChoiceQuestion("q1", "pick", []string{"a", "b"}, 0, 10)
	tf, _ := domain.NewTrueFalseQuestion("q2", "really?", false, 15)
	quiz, err := domain.NewQuiz("quiz-1", "round trip", "desc", []domain.Question{choice, tf}, time.Time{})
	if err != nil {
		t.Fatalf("build quiz: %v", err)
	}

	back, err := quizdoc.ToQuiz(quizdoc.FromQuiz(quiz))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	q1, _ := back.QuestionAt(0)
	if !q1.ValidateAnswer(0) {
		t.Fatalf("choice answer changed in round trip")
	}
	q2, _ := back.QuestionAt(1)
	if !q2.ValidateAnswer(false) {
		t.Fatalf("true/false answer changed in round trip")
	}
}
