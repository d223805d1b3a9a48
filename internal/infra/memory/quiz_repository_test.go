package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func staticQuizzes(t *testing.T) map[string]*domain.Quiz {
	t.Helper()
	q, err := domain.NewChoiceQuestion("q1", "pick", []string{"a", "b"}, 0, 10)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}
	quiz, err := domain.NewQuiz("quiz-1", "t", "", []domain.Question{q}, time.Time{})
	if err != nil {
		t.Fatalf("build quiz: %v", err)
	}
	return map[string]*domain.Quiz{"quiz-1": quiz}
}

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(staticQuizzes(t))}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryConcurrentDistinctLoads(t *testing.T) {
	quizzes := make(map[string]*domain.Quiz)
	for i := 0; i < 8; i++ {
		q, err := domain.NewTrueFalseQuestion("q1", "q", true, 10)
		if err != nil {
			t.Fatalf("build question: %v", err)
		}
		id := fmt.Sprintf("quiz-%d", i)
		quiz, err := domain.NewQuiz(id, id, "", []domain.Question{q}, time.Time{})
		if err != nil {
			t.Fatalf("build quiz: %v", err)
		}
		quizzes[id] = quiz
	}
	repo := NewQuizRepository(NewStaticQuizLoader(quizzes), time.Minute)

	// distinct ids bypass singleflight coalescing, so the cache fills race
	var wg sync.WaitGroup
	for id := range quizzes {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := repo.GetQuiz(context.Background(), id); err != nil {
				t.Errorf("get %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()
}

func TestQuizRepositoryMiss(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(staticQuizzes(t)), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "quiz-404"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
