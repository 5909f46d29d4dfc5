package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"animal-quiz-service/internal/domain"
)

func dialScoreboard(t *testing.T, server *testServer, quizID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + server.URL[len("http"):] + "/ws?quizId=" + quizID + "&token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) domain.Scoreboard {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Type    string            `json:"type"`
		Payload domain.Scoreboard `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read scoreboard: %v", err)
	}
	if msg.Type != "scoreboard" {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	return msg.Payload
}

func TestScoreboardStream(t *testing.T) {
	server := newTestServer(t)
	_, studentToken := server.register(t, "Budi", "budi@sekolah.id", "student")

	conn := dialScoreboard(t, server, "quiz-1", studentToken)

	initial := readSnapshot(t, conn)
	if initial.QuizID != "quiz-1" || len(initial.Entries) != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	server.boards.Record("quiz-1", "u1", "Budi", 2)
	update := readSnapshot(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].BestScore != 2 {
		t.Fatalf("unexpected update: %+v", update)
	}

	server.boards.Record("quiz-1", "u2", "Ani", 3)
	update = readSnapshot(t, conn)
	if len(update.Entries) != 2 || update.Entries[0].Name != "Ani" {
		t.Fatalf("expected Ani on top, got %+v", update)
	}
}

func TestScoreboardStreamAfterSubmission(t *testing.T) {
	server := newTestServer(t)
	_, teacherToken := server.register(t, "Bu Sari", "guru@sekolah.id", "teacher")
	_, studentToken := server.register(t, "Budi", "budi@sekolah.id", "student")

	resp, quiz := server.do(t, http.MethodPost, "/api/quiz", teacherToken, map[string]any{
		"title": "Hewan 1",
		"questions": []map[string]string{
			{"questionText": "Gajah termasuk?", "answer": "Herbivora"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create quiz: status %d", resp.StatusCode)
	}
	quizID := quiz["id"].(string)
	questionID := quiz["questions"].([]any)[0].(map[string]any)["id"].(string)

	conn := dialScoreboard(t, server, quizID, studentToken)
	readSnapshot(t, conn)

	resp, _ = server.do(t, http.MethodPost, "/api/quiz/submit", studentToken, map[string]any{
		"quizId":  quizID,
		"answers": []map[string]string{{"id": questionID, "answer": "Herbivora"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}

	update := readSnapshot(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].Name != "Budi" || update.Entries[0].BestScore != 1 {
		t.Fatalf("unexpected scoreboard after submission: %+v", update)
	}
}

func TestScoreboardRejectsBadRequests(t *testing.T) {
	server := newTestServer(t)
	_, studentToken := server.register(t, "Budi", "budi@sekolah.id", "student")

	resp, err := http.Get(server.URL + "/ws?token=" + studentToken)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without quizId, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/ws?quizId=quiz-1&token=garbage")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}
