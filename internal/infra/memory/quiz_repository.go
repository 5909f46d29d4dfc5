package memory

import (
	"context"
	"sort"
	"sync"

	"animal-quiz-service/internal/domain"
)

// QuizRepository is an in-memory implementation of app.QuizRepository.
type QuizRepository struct {
	mu      sync.RWMutex
	quizzes map[string]*domain.Quiz
	byTitle map[string]string
}

func NewQuizRepository() *QuizRepository {
	return &QuizRepository{
		quizzes: make(map[string]*domain.Quiz),
		byTitle: make(map[string]string),
	}
}

func (r *QuizRepository) Create(_ context.Context, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTitle[quiz.Title]; ok {
		return domain.ErrDuplicateTitle
	}
	stored := quiz
	stored.Questions = append([]domain.Question(nil), quiz.Questions...)
	r.quizzes[quiz.ID] = &stored
	r.byTitle[quiz.Title] = quiz.ID
	return nil
}

func (r *QuizRepository) GetByID(_ context.Context, id string) (domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	copied := *quiz
	copied.Questions = append([]domain.Question(nil), quiz.Questions...)
	return copied, nil
}

func (r *QuizRepository) List(_ context.Context) ([]domain.QuizSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summaries := make([]domain.QuizSummary, 0, len(r.quizzes))
	for _, quiz := range r.quizzes {
		summaries = append(summaries, domain.QuizSummary{
			ID:        quiz.ID,
			Title:     quiz.Title,
			CreatedAt: quiz.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (r *QuizRepository) AppendQuestion(_ context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Questions = append(quiz.Questions, question)
	copied := *quiz
	copied.Questions = append([]domain.Question(nil), quiz.Questions...)
	return copied, nil
}
