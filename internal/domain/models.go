package domain

import "time"

// Role is the closed set of user roles. Only teachers author quizzes.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// ParseRole validates a free-form role string from a request body.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleTeacher:
		return Role(raw), nil
	default:
		return "", ErrInvalidInput
	}
}

// User is an account record. PasswordHash is always a bcrypt hash by the
// time it reaches storage; Stars is meaningful for students only.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Stars        int       `json:"stars"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Attempt records the highest score a user has ever reached on one quiz.
type Attempt struct {
	QuizID       string `json:"quizId"`
	HighestScore int    `json:"highestScore"`
}

// Question pairs a prompt with its expected answer. Answers are compared
// case-insensitively, with no trimming or other normalization.
type Question struct {
	ID     string `json:"id"`
	Text   string `json:"questionText"`
	Answer string `json:"answer"`
}

// Quiz is an ordered set of questions owned by a teacher. Question order is
// insertion order.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QuizSummary is the list view exposed by the quiz index endpoint.
type QuizSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// StudentQuestion is a question with the answer key stripped.
type StudentQuestion struct {
	ID   string `json:"id"`
	Text string `json:"questionText"`
}

// StudentQuiz is the quiz view served to quiz takers. It never carries
// expected answers, regardless of the caller's role.
type StudentQuiz struct {
	QuizID    string            `json:"quizId"`
	Title     string            `json:"title"`
	Questions []StudentQuestion `json:"questions"`
}

// SubmittedAnswer is one answer in a submission. Answers referencing unknown
// question ids contribute nothing to the score.
type SubmittedAnswer struct {
	QuestionID string `json:"id"`
	Answer     string `json:"answer"`
}

// SubmissionResult reports the outcome of a quiz submission. StarsAwarded and
// NewTotalStars are present only when the submission beat the prior best;
// clients infer "no change" from their absence.
type SubmissionResult struct {
	Message        string `json:"message"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions"`
	StarsAwarded   int    `json:"starsAwarded,omitempty"`
	NewTotalStars  *int   `json:"newTotalStars,omitempty"`
}

// AnswerKey maps question ids to lowercased expected answers. Its length is
// the quiz's question count.
type AnswerKey map[string]string

// RatchetResult is the outcome of an atomic best-score update.
type RatchetResult struct {
	Improved     bool
	PreviousBest int
	TotalStars   int
}

// ScoreboardEntry is one row of a quiz's live scoreboard.
type ScoreboardEntry struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	BestScore int    `json:"bestScore"`
}

// Scoreboard is an ordered snapshot of best scores for one quiz.
type Scoreboard struct {
	QuizID    string            `json:"quizId"`
	Entries   []ScoreboardEntry `json:"entries"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
