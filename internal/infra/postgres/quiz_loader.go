package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/quizdoc"
)

// QuizLoader loads quiz documents from a Postgres JSONB column.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	var doc quizdoc.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	// The table id is authoritative; stored documents may omit their own.
	if doc.ID == "" {
		doc.ID = quizID
	}
	quiz, err := quizdoc.ToQuiz(doc)
	if err != nil {
		return nil, fmt.Errorf("map quiz: %w", err)
	}
	return quiz, nil
}
