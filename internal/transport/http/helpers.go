package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"animal-quiz-service/internal/domain"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError translates domain sentinels into the HTTP error taxonomy.
// Unclassified failures become a generic 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNoQuizzes):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrDuplicateTitle):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "request failed"})
	}
}
