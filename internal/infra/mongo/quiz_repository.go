package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/quizdoc"
)

// QuizRepository stores quiz aggregates in a Mongo collection. The
// client handle is constructed by the caller and passed in; its open and
// close lifecycle belongs to the composition root.
type QuizRepository struct {
	collection *mongo.Collection
}

func NewQuizRepository(client *mongo.Client, database string) *QuizRepository {
	return &QuizRepository{
		collection: client.Database(database).Collection("quizzes"),
	}
}

// LoadQuiz satisfies the cache-layer loader interfaces.
func (r *QuizRepository) LoadQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	return r.FindByID(ctx, quizID)
}

// FindByID loads one quiz; a missing document maps to ErrQuizNotFound.
func (r *QuizRepository) FindByID(ctx context.Context, quizID string) (*domain.Quiz, error) {
	var doc quizdoc.Document
	err := r.collection.FindOne(ctx, bson.M{"_id": quizID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find quiz: %w", err)
	}
	quiz, err := quizdoc.ToQuiz(doc)
	if err != nil {
		return nil, fmt.Errorf("map quiz: %w", err)
	}
	return quiz, nil
}

// FindAll loads every quiz, newest first.
func (r *QuizRepository) FindAll(ctx context.Context) ([]*domain.Quiz, error) {
	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []quizdoc.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode quizzes: %w", err)
	}
	quizzes := make([]*domain.Quiz, 0, len(docs))
	for _, doc := range docs {
		quiz, err := quizdoc.ToQuiz(doc)
		if err != nil {
			return nil, fmt.Errorf("map quiz %q: %w", doc.ID, err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// Insert persists a new quiz. A quiz without an id gets a generated
// ObjectID hex, written back to the entity.
func (r *QuizRepository) Insert(ctx context.Context, quiz *domain.Quiz) (string, error) {
	doc := quizdoc.FromQuiz(quiz)
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert quiz: %w", err)
	}
	quiz.SetID(doc.ID)
	return doc.ID, nil
}

// Update replaces an existing quiz document.
func (r *QuizRepository) Update(ctx context.Context, quiz *domain.Quiz) error {
	if quiz.ID() == "" {
		return fmt.Errorf("cannot update quiz without id")
	}
	doc := quizdoc.FromQuiz(quiz)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
