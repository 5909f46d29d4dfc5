package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/domain"
)

// WSHandler streams live scoreboard updates for a quiz over a websocket.
// Browsers cannot set headers on websocket requests, so the bearer token is
// passed as a query parameter instead.
type WSHandler struct {
	auth     *app.AuthService
	boards   *app.ScoreboardHub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(auth *app.AuthService, boards *app.ScoreboardHub, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		auth:   auth,
		boards: boards,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string            `json:"type"`
	Payload domain.Scoreboard `json:"payload"`
}

// ServeWS upgrades the request and pushes a scoreboard snapshot on every
// best-score improvement, starting with the current state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	if _, err := h.auth.UserFromToken(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.boards.Subscribe(quizID)
	defer cancel()

	// Reader only detects the client closing; all writes stay on this
	// goroutine so there is never a concurrent write on the connection.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "scoreboard", Payload: update}); err != nil {
				h.log.Warn("ws write failed", "quizId", quizID, "err", err)
				return
			}
		case <-clientGone:
			return
		}
	}
}
