package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"animal-quiz-service/internal/domain"
)

// Manager issues and verifies bearer tokens. Tokens are HS256 JWTs carrying
// the user id as their sole claim, valid for a fixed window from issuance.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewManagerWithClock is test-only for deterministic expiry.
func NewManagerWithClock(secret string, ttl time.Duration, now func() time.Time) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token for the given user id.
func (m *Manager) Issue(userID string) (string, error) {
	issued := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the user id. Any failure
// maps to ErrUnauthorized; the cause is not exposed to callers.
func (m *Manager) Verify(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
