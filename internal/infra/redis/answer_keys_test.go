package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"animal-quiz-service/internal/domain"
	"animal-quiz-service/internal/infra/memory"
)

func TestAnswerKeyCacheFillsRedisOnce(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counting := &countingQuizRepo{quizzes: seededQuizRepo(t)}
	cache := NewAnswerKeyCache(client, counting, time.Minute)

	key, err := cache.AnswerKey(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if len(key) != 2 || key["q1"] != "herbivora" {
		t.Fatalf("unexpected key: %+v", key)
	}
	if counting.calls != 1 {
		t.Fatalf("expected loader called once, got %d", counting.calls)
	}
	if !mr.Exists("quiz:quiz-1:answers") {
		t.Fatalf("expected redis hash to be filled")
	}

	// Second call hits the hash, not the repository.
	if _, err := cache.AnswerKey(ctx, "quiz-1"); err != nil {
		t.Fatalf("answer key 2: %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", counting.calls)
	}
}

func TestAnswerKeyCacheInvalidateDropsHash(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counting := &countingQuizRepo{quizzes: seededQuizRepo(t)}
	cache := NewAnswerKeyCache(client, counting, time.Minute)

	if _, err := cache.AnswerKey(ctx, "quiz-1"); err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if err := cache.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1:answers") {
		t.Fatalf("expected redis hash to be removed")
	}
	if _, err := cache.AnswerKey(ctx, "quiz-1"); err != nil {
		t.Fatalf("answer key after invalidate: %v", err)
	}
	if counting.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", counting.calls)
	}
}

type countingQuizRepo struct {
	quizzes *memory.QuizRepository
	calls   int
}

func (r *countingQuizRepo) Create(ctx context.Context, quiz domain.Quiz) error {
	return r.quizzes.Create(ctx, quiz)
}

func (r *countingQuizRepo) GetByID(ctx context.Context, id string) (domain.Quiz, error) {
	r.calls++
	return r.quizzes.GetByID(ctx, id)
}

func (r *countingQuizRepo) List(ctx context.Context) ([]domain.QuizSummary, error) {
	return r.quizzes.List(ctx)
}

func (r *countingQuizRepo) AppendQuestion(ctx context.Context, quizID string, q domain.Question) (domain.Quiz, error) {
	return r.quizzes.AppendQuestion(ctx, quizID, q)
}

func seededQuizRepo(t *testing.T) *memory.QuizRepository {
	t.Helper()
	repo := memory.NewQuizRepository()
	err := repo.Create(context.Background(), domain.Quiz{
		ID:        "quiz-1",
		Title:     "Hewan 1",
		CreatedBy: "guru",
		Questions: []domain.Question{
			{ID: "q1", Text: "Gajah termasuk?", Answer: "Herbivora"},
			{ID: "q2", Text: "Harimau termasuk?", Answer: "Karnivora"},
		},
	})
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return repo
}
