package domain

import "errors"

var (
	// ErrInvalidInput is returned when a request is missing required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned for a missing, malformed, or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a role or ownership check fails.
	ErrForbidden = errors.New("forbidden")
	// ErrQuizNotFound indicates a quiz id does not resolve.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates a user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoQuizzes is returned when the quiz index is empty.
	ErrNoQuizzes = errors.New("no quizzes available")
	// ErrEmailTaken indicates the unique email constraint was violated.
	ErrEmailTaken = errors.New("email already registered")
	// ErrDuplicateTitle indicates the unique quiz title constraint was violated.
	ErrDuplicateTitle = errors.New("quiz title already exists")
)
