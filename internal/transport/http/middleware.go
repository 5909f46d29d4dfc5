package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/domain"
)

type contextKey struct{}

var userKey contextKey

// requireAuth validates the bearer token and resolves it to a user record
// before any handler logic runs. Requests without a token fail with 401.
func requireAuth(auth *app.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeServiceError(w, domain.ErrUnauthorized)
				return
			}

			user, err := auth.UserFromToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom extracts the authenticated user placed by requireAuth.
func userFrom(r *http.Request) (domain.User, bool) {
	user, ok := r.Context().Value(userKey).(domain.User)
	return user, ok
}

// logRequests records every request at debug level.
func logRequests(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
