package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"animal-quiz-service/internal/domain"
	"animal-quiz-service/internal/token"
)

// UserRepository abstracts how user records are stored (in-memory, Postgres).
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// RecordBestScore applies the score ratchet for one (user, quiz) pair as a
	// single atomic operation: the best-score record and the star balance
	// change only when score exceeds the stored best.
	RecordBestScore(ctx context.Context, userID, quizID string, score int) (domain.RatchetResult, error)
}

// AuthService covers registration, login, and token resolution.
type AuthService struct {
	users      UserRepository
	tokens     *token.Manager
	bcryptCost int
}

func NewAuthService(users UserRepository, tokens *token.Manager, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates a user and returns it with an issued token. Hashing is an
// explicit step here so the password is never plaintext past this point.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (domain.User, string, error) {
	if name == "" || email == "" || password == "" || role == "" {
		return domain.User{}, "", domain.ErrInvalidInput
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return domain.User{}, "", err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         parsedRole,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, "", err
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, signed, nil
}

// Login verifies credentials and returns the user with a fresh token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	if email == "" || password == "" {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, signed, nil
}

// UserFromToken validates a bearer token and resolves it to a user record.
func (s *AuthService) UserFromToken(ctx context.Context, raw string) (domain.User, error) {
	userID, err := s.tokens.Verify(raw)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	return user, nil
}
