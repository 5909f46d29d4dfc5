package memory

import (
	"context"
	"sync"

	"animal-quiz-service/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository,
// useful for tests and for running the server without Postgres.
type UserRepository struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	byEmail  map[string]string
	attempts map[string]map[string]int // userID -> quizID -> highest score
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:    make(map[string]*domain.User),
		byEmail:  make(map[string]string),
		attempts: make(map[string]map[string]int),
	}
}

func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	stored := user
	r.users[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *r.users[id], nil
}

// RecordBestScore holds the lock across the read-modify-write, so concurrent
// submissions for the same user cannot lose an update.
func (r *UserRepository) RecordBestScore(_ context.Context, userID, quizID string, score int) (domain.RatchetResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return domain.RatchetResult{}, domain.ErrUserNotFound
	}

	best := r.attempts[userID]
	prev := best[quizID]
	if score <= prev {
		return domain.RatchetResult{Improved: false, PreviousBest: prev, TotalStars: user.Stars}, nil
	}

	if best == nil {
		best = make(map[string]int)
		r.attempts[userID] = best
	}
	best[quizID] = score
	user.Stars += score - prev
	return domain.RatchetResult{Improved: true, PreviousBest: prev, TotalStars: user.Stars}, nil
}
