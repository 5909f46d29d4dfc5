package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"animal-quiz-service/internal/domain"
)

// QuizRepository abstracts how quiz records are stored.
type QuizRepository interface {
	Create(ctx context.Context, quiz domain.Quiz) error
	GetByID(ctx context.Context, id string) (domain.Quiz, error)
	List(ctx context.Context) ([]domain.QuizSummary, error)
	AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error)
}

// AnswerKeys provides the compact scoring view of a quiz (from cache or the
// backing store). Invalidate must be called after the quiz changes.
type AnswerKeys interface {
	AnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error)
	Invalidate(ctx context.Context, quizID string) error
}

// QuestionInput is an answer-keyed question as submitted by a teacher.
type QuestionInput struct {
	Text   string `json:"questionText"`
	Answer string `json:"answer"`
}

// QuizService contains the quiz authoring and submission use cases.
type QuizService struct {
	quizzes QuizRepository
	users   UserRepository
	keys    AnswerKeys
	boards  *ScoreboardHub
	log     *slog.Logger
	now     func() time.Time
}

func NewQuizService(quizzes QuizRepository, users UserRepository, keys AnswerKeys, boards *ScoreboardHub, log *slog.Logger) *QuizService {
	if log == nil {
		log = slog.Default()
	}
	return &QuizService{
		quizzes: quizzes,
		users:   users,
		keys:    keys,
		boards:  boards,
		log:     log,
		now:     time.Now,
	}
}

// Create persists a new quiz for a teacher. Question ids are generated here;
// title uniqueness is enforced by the storage layer.
func (s *QuizService) Create(ctx context.Context, title string, questions []QuestionInput, creatorID string) (domain.Quiz, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if creator.Role != domain.RoleTeacher {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if title == "" || len(questions) == 0 {
		return domain.Quiz{}, domain.ErrInvalidInput
	}

	quiz := domain.Quiz{
		ID:        uuid.NewString(),
		Title:     title,
		Questions: make([]domain.Question, 0, len(questions)),
		CreatedBy: creatorID,
		CreatedAt: s.now(),
	}
	for _, q := range questions {
		if q.Text == "" || q.Answer == "" {
			return domain.Quiz{}, domain.ErrInvalidInput
		}
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:     uuid.NewString(),
			Text:   q.Text,
			Answer: q.Answer,
		})
	}

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.log.Info("quiz created", "quizId", quiz.ID, "title", quiz.Title, "questions", len(quiz.Questions))
	return quiz, nil
}

// AddQuestion appends a question to an existing quiz. Only the original
// creator may modify a quiz.
func (s *QuizService) AddQuestion(ctx context.Context, quizID, text, answer, requesterID string) (domain.Quiz, error) {
	if text == "" || answer == "" {
		return domain.Quiz{}, domain.ErrInvalidInput
	}
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.CreatedBy != requesterID {
		return domain.Quiz{}, domain.ErrForbidden
	}

	question := domain.Question{ID: uuid.NewString(), Text: text, Answer: answer}
	updated, err := s.quizzes.AppendQuestion(ctx, quizID, question)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := s.keys.Invalidate(ctx, quizID); err != nil {
		s.log.Warn("answer key invalidation failed", "quizId", quizID, "err", err)
	}
	return updated, nil
}

// List returns quiz summaries, newest first.
func (s *QuizService) List(ctx context.Context) ([]domain.QuizSummary, error) {
	summaries, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, domain.ErrNoQuizzes
	}
	return summaries, nil
}

// GetForStudent returns a quiz with every expected answer stripped. No caller
// role receives the answer key through this path.
func (s *QuizService) GetForStudent(ctx context.Context, quizID string) (domain.StudentQuiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return domain.StudentQuiz{}, err
	}
	view := domain.StudentQuiz{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Questions: make([]domain.StudentQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		view.Questions = append(view.Questions, domain.StudentQuestion{ID: q.ID, Text: q.Text})
	}
	return view, nil
}

// Submit scores an answer set and applies the best-score ratchet. Answers for
// unknown question ids are ignored; matching is lowercase equality with no
// trimming. Stars move only when the score beats the stored best, and the
// update is atomic in the repository.
func (s *QuizService) Submit(ctx context.Context, quizID, userID string, answers []domain.SubmittedAnswer) (domain.SubmissionResult, error) {
	key, err := s.keys.AnswerKey(ctx, quizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if answers == nil {
		return domain.SubmissionResult{}, domain.ErrInvalidInput
	}

	score := 0
	for _, submitted := range answers {
		expected, ok := key[submitted.QuestionID]
		if ok && strings.ToLower(submitted.Answer) == expected {
			score++
		}
	}

	ratchet, err := s.users.RecordBestScore(ctx, userID, quizID, score)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	result := domain.SubmissionResult{
		CorrectAnswers: score,
		TotalQuestions: len(key),
	}
	if !ratchet.Improved {
		result.Message = fmt.Sprintf("Skormu %d. Belum melampaui rekor terbaikmu (%d). Coba lagi!", score, ratchet.PreviousBest)
		return result, nil
	}

	awarded := score - ratchet.PreviousBest
	total := ratchet.TotalStars
	result.Message = fmt.Sprintf("Luar biasa! Rekor baru! Kamu dapat %d bintang tambahan.", awarded)
	result.StarsAwarded = awarded
	result.NewTotalStars = &total

	if s.boards != nil {
		s.boards.Record(quizID, user.ID, user.Name, score)
	}
	s.log.Info("new best score", "quizId", quizID, "userId", userID, "score", score, "awarded", awarded)
	return result, nil
}
