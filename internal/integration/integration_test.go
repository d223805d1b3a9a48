package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/game"
	"live-quiz-service/internal/infra/memory"
	mongostore "live-quiz-service/internal/infra/mongo"
	pgloader "live-quiz-service/internal/infra/postgres"
	pgmigrations "live-quiz-service/internal/infra/postgres/migrations"
	infraredis "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/infra/quizdoc"
)

func TestPostgresRedisGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedPostgresQuiz(t, ctx, pgURL, sampleQuizDocument())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewGameService(sessionStore, quizRepo)

	playThrough(t, ctx, service)
}

func TestMongoGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	mongoURL, mongoCleanup := startMongo(t, ctx)
	defer mongoCleanup()

	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(mongoURL))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := mongostore.NewQuizRepository(client, "quizdb")

	// Insert through the repository, then play from a fresh load.
	doc := sampleQuizDocument()
	quiz, err := quizdoc.ToQuiz(doc)
	if err != nil {
		t.Fatalf("map quiz: %v", err)
	}
	if _, err := repo.Insert(ctx, quiz); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}

	loaded, err := repo.FindByID(ctx, quiz.ID())
	if err != nil {
		t.Fatalf("find quiz: %v", err)
	}
	if loaded.QuestionCount() != 2 {
		t.Fatalf("expected 2 questions, got %d", loaded.QuestionCount())
	}

	service := app.NewGameService(memory.NewSessionStore(), memory.NewQuizRepository(repo, 5*time.Minute))
	playThroughQuiz(t, ctx, service, quiz.ID())
}

func playThrough(t *testing.T, ctx context.Context, service *app.GameService) {
	t.Helper()
	playThroughQuiz(t, ctx, service, "quiz-1")
}

func playThroughQuiz(t *testing.T, ctx context.Context, service *app.GameService, quizID string) {
	t.Helper()

	pin, err := service.HostGame(ctx, quizID)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if _, err := service.Join(ctx, pin, "u1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Join(ctx, pin, "u2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if changed, err := service.StartQuestion(ctx, pin); err != nil || !changed {
		t.Fatalf("start: changed=%v err=%v", changed, err)
	}

	result, err := service.SubmitAnswer(ctx, pin, "u2", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Accepted || !result.Correct || result.TotalScore != game.PointsPerCorrect {
		t.Fatalf("expected correct first answer, got %+v", result)
	}

	// next question is true/false
	service.Next(ctx, pin)
	service.Next(ctx, pin)
	result, err = service.SubmitAnswer(ctx, pin, "u1", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Accepted || !result.Correct {
		t.Fatalf("expected correct true/false answer, got %+v", result)
	}

	service.Next(ctx, pin)
	service.Next(ctx, pin)
	view, err := service.Snapshot(ctx, pin)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.State != game.StateFinished {
		t.Fatalf("expected finished, got %s", view.State)
	}
	if len(view.Leaderboard) != 2 || view.Leaderboard[0].Score != game.PointsPerCorrect {
		t.Fatalf("expected tied leaders at %d, got %+v", game.PointsPerCorrect, view.Leaderboard)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start mongo: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("mongo host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("mongo port: %v", err)
	}
	url := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedPostgresQuiz(t *testing.T, ctx context.Context, dsn string, doc quizdoc.Document) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, doc.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuizDocument() quizdoc.Document {
	return quizdoc.Document{
		ID:    "quiz-1",
		Title: "mixed",
		Questions: []quizdoc.QuestionDocument{
			{
				ID:               "q1",
				Type:             "choice",
				Text:             "What is 2 + 2?",
				TimeLimitSeconds: 20,
				Options:          []string{"3", "4", "5"},
				CorrectIndex:     1,
			},
			{
				ID:               "q2",
				Type:             "true_false",
				Text:             "The Pacific is the largest ocean.",
				TimeLimitSeconds: 15,
				CorrectAnswer:    true,
			},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
