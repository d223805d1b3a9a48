package memory

import (
	"testing"
	"time"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
)

func testSession(t *testing.T, pin string) *game.Session {
	t.Helper()
	q, err := domain.NewTrueFalseQuestion("q1", "q", true, 10)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}
	quiz, err := domain.NewQuiz("quiz-1", "t", "", []domain.Question{q}, time.Time{})
	if err != nil {
		t.Fatalf("build quiz: %v", err)
	}
	return game.NewSession(pin, quiz)
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := testSession(t, "111111")

	store.Save("111111", session)
	if _, ok := store.Get("111111"); !ok {
		t.Fatalf("expected session present")
	}

	store.DeleteIfEmpty("111111")
	if _, ok := store.Get("111111"); ok {
		t.Fatalf("expected empty session removed")
	}
}

func TestSaveIfAbsentReservesPinOnce(t *testing.T) {
	store := NewSessionStore()
	first := testSession(t, "333333")
	second := testSession(t, "333333")

	if !store.SaveIfAbsent("333333", first) {
		t.Fatalf("expected free pin to be reserved")
	}
	if store.SaveIfAbsent("333333", second) {
		t.Fatalf("expected taken pin to be rejected")
	}
	got, _ := store.Get("333333")
	if got != first {
		t.Fatalf("expected the first session to survive the conflict")
	}
}

func TestDeleteIfEmptyKeepsPopulatedSessions(t *testing.T) {
	store := NewSessionStore()
	session := testSession(t, "222222")
	session.JoinPlayer("c1", "Alice")

	store.Save("222222", session)
	store.DeleteIfEmpty("222222")
	if _, ok := store.Get("222222"); !ok {
		t.Fatalf("expected populated session kept")
	}

	store.Delete("222222")
	if _, ok := store.Get("222222"); ok {
		t.Fatalf("expected unconditional delete to remove the session")
	}
}
