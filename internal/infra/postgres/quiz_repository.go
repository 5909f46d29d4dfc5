package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"animal-quiz-service/internal/domain"
)

// QuizRepository stores quizzes in Postgres with questions as JSONB, which
// keeps insertion order and matches the document shape of the quiz record.
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func (r *QuizRepository) Create(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO quizzes (id, title, created_by, questions, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)`,
		quiz.ID, quiz.Title, quiz.CreatedBy, string(data), quiz.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateTitle
	}
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (r *QuizRepository) GetByID(ctx context.Context, id string) (domain.Quiz, error) {
	var quiz domain.Quiz
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, created_by, questions, created_at FROM quizzes WHERE id=$1`, id,
	).Scan(&quiz.ID, &quiz.Title, &quiz.CreatedBy, &raw, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}

func (r *QuizRepository) List(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, created_at FROM quizzes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var summaries []domain.QuizSummary
	for rows.Next() {
		var s domain.QuizSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return summaries, nil
}

// AppendQuestion appends to the JSONB array in a single statement, so
// concurrent appends cannot drop each other's questions.
func (r *QuizRepository) AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	data, err := json.Marshal(question)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal question: %w", err)
	}

	var quiz domain.Quiz
	var raw []byte
	err = r.pool.QueryRow(ctx, `
		UPDATE quizzes SET questions = questions || $2::jsonb
		WHERE id = $1
		RETURNING id, title, created_by, questions, created_at`,
		quizID, string(data),
	).Scan(&quiz.ID, &quiz.Title, &quiz.CreatedBy, &raw, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("append question: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
