package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"animal-quiz-service/internal/app"
)

// NewRouter wires the REST surface and the scoreboard websocket.
func NewRouter(auth *app.AuthService, quizzes *app.QuizService, boards *app.ScoreboardHub, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	authHandler := NewAuthHandler(auth)
	quizHandler := NewQuizHandler(quizzes)
	wsHandler := NewWSHandler(auth, boards, log)

	r := mux.NewRouter()
	r.Use(logRequests(log))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(requireAuth(auth))
	protected.HandleFunc("/auth/profile", authHandler.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/quiz", quizHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/quiz", quizHandler.List).Methods(http.MethodGet)
	// Registered before /quiz/{quizId} so "submit" is never taken for an id.
	protected.HandleFunc("/quiz/submit", quizHandler.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/quiz/{quizId}", quizHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/quiz/{quizId}/questions", quizHandler.AddQuestion).Methods(http.MethodPost)

	r.HandleFunc("/ws", wsHandler.ServeWS).Methods(http.MethodGet)

	return r
}
