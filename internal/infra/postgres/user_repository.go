package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"animal-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// UserRepository stores user records and best-score attempts in Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, stars, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.Stars, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.get(ctx, `SELECT id, name, email, password_hash, role, stars, created_at FROM users WHERE id=$1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.get(ctx, `SELECT id, name, email, password_hash, role, stars, created_at FROM users WHERE email=$1`, email)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (domain.User, error) {
	var user domain.User
	var role string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.Stars, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	user.Role = domain.Role(role)
	return user, nil
}

// RecordBestScore applies the score ratchet inside one transaction. The user
// row is locked first, which serializes concurrent submissions per user and
// keeps the star balance equal to the sum of best scores.
func (r *UserRepository) RecordBestScore(ctx context.Context, userID, quizID string, score int) (domain.RatchetResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.RatchetResult{}, fmt.Errorf("begin ratchet tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var stars int
	err = tx.QueryRow(ctx, `SELECT stars FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&stars)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RatchetResult{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.RatchetResult{}, fmt.Errorf("lock user: %w", err)
	}

	prev := 0
	err = tx.QueryRow(ctx,
		`SELECT highest_score FROM quiz_attempts WHERE user_id=$1 AND quiz_id=$2`,
		userID, quizID,
	).Scan(&prev)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.RatchetResult{}, fmt.Errorf("load attempt: %w", err)
	}

	if score <= prev {
		if err := tx.Commit(ctx); err != nil {
			return domain.RatchetResult{}, fmt.Errorf("commit ratchet tx: %w", err)
		}
		return domain.RatchetResult{Improved: false, PreviousBest: prev, TotalStars: stars}, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO quiz_attempts (user_id, quiz_id, highest_score, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, quiz_id)
		DO UPDATE SET highest_score = EXCLUDED.highest_score, updated_at = now()`,
		userID, quizID, score,
	)
	if err != nil {
		return domain.RatchetResult{}, fmt.Errorf("upsert attempt: %w", err)
	}

	var newStars int
	err = tx.QueryRow(ctx,
		`UPDATE users SET stars = stars + $2 WHERE id=$1 RETURNING stars`,
		userID, score-prev,
	).Scan(&newStars)
	if err != nil {
		return domain.RatchetResult{}, fmt.Errorf("update stars: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RatchetResult{}, fmt.Errorf("commit ratchet tx: %w", err)
	}
	return domain.RatchetResult{Improved: true, PreviousBest: prev, TotalStars: newStars}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
