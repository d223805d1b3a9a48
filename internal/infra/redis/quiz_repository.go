package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/quizdoc"
)

// QuizLoader fetches quiz content from a backing store (Postgres, Mongo).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
}

// QuizRepository caches whole quiz documents in Redis and falls back to
// a loader on cache miss. Live play needs question texts, options, and
// time limits, so the full document is cached as JSON:
//
//	SET quiz:{quizID}:doc {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	if quiz, ok := r.fromCache(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if quiz, ok := r.fromCache(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(quizdoc.FromQuiz(quiz)); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, r.docKey(quizID), data, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Quiz), nil
}

func (r *QuizRepository) fromCache(ctx context.Context, quizID string) (*domain.Quiz, bool) {
	data, err := r.client.Get(ctx, r.docKey(quizID)).Bytes()
	if err != nil {
		return nil, false
	}
	var doc quizdoc.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	quiz, err := quizdoc.ToQuiz(doc)
	if err != nil {
		// A document that no longer passes validation is dropped so the
		// loader can repopulate it.
		_ = r.client.Del(ctx, r.docKey(quizID)).Err()
		return nil, false
	}
	return quiz, true
}

func (r *QuizRepository) docKey(quizID string) string {
	return "quiz:" + quizID + ":doc"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
