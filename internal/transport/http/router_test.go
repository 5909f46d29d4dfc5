package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/infra/memory"
	"animal-quiz-service/internal/token"
	transport "animal-quiz-service/internal/transport/http"
)

type testServer struct {
	*httptest.Server
	boards *app.ScoreboardHub
	tokens *token.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := memory.NewUserRepository()
	quizzes := memory.NewQuizRepository()
	keys := memory.NewAnswerKeyCache(quizzes, 5*time.Minute)
	tokens := token.NewManager("test-secret", time.Hour)
	boards := app.NewScoreboardHub()

	authService := app.NewAuthService(users, tokens, 4)
	quizService := app.NewQuizService(quizzes, users, keys, boards, nil)

	server := httptest.NewServer(transport.NewRouter(authService, quizService, boards, nil))
	t.Cleanup(server.Close)
	return &testServer{Server: server, boards: boards, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (s *testServer) register(t *testing.T, name, email, role string) (id, bearer string) {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "rahasia123", "role": role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", email, resp.StatusCode, body)
	}
	return body["id"].(string), body["token"].(string)
}

func TestQuizFlowEndToEnd(t *testing.T) {
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
		t.Fatalf("create quiz: status %d, body %v", resp.StatusCode, quiz)
	}
	quizID := quiz["id"].(string)
	questionID := quiz["questions"].([]any)[0].(map[string]any)["id"].(string)

	resp, _ = server.do(t, http.MethodGet, "/api/quiz", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list quizzes: status %d", resp.StatusCode)
	}

	resp, view := server.do(t, http.MethodGet, "/api/quiz/"+quizID, studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get quiz: status %d", resp.StatusCode)
	}
	for _, raw := range view["questions"].([]any) {
		question := raw.(map[string]any)
		if _, leaked := question["answer"]; leaked {
			t.Fatalf("answer key leaked to student view: %v", question)
		}
	}

	resp, result := server.do(t, http.MethodPost, "/api/quiz/submit", studentToken, map[string]any{
		"quizId":  quizID,
		"answers": []map[string]string{{"id": questionID, "answer": "herbivora"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d, body %v", resp.StatusCode, result)
	}
	if result["correctAnswers"].(float64) != 1 || result["totalQuestions"].(float64) != 1 {
		t.Fatalf("unexpected submit result: %v", result)
	}
	if result["newTotalStars"].(float64) != 1 {
		t.Fatalf("expected newTotalStars 1, got %v", result)
	}

	// No improvement: the response must omit the star fields entirely.
	resp, result = server.do(t, http.MethodPost, "/api/quiz/submit", studentToken, map[string]any{
		"quizId":  quizID,
		"answers": []map[string]string{{"id": questionID, "answer": "karnivora"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resubmit: status %d", resp.StatusCode)
	}
	if _, present := result["newTotalStars"]; present {
		t.Fatalf("newTotalStars must be omitted on non-improvement: %v", result)
	}
	if _, present := result["starsAwarded"]; present {
		t.Fatalf("starsAwarded must be omitted on non-improvement: %v", result)
	}

	resp, profile := server.do(t, http.MethodGet, "/api/auth/profile", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: status %d", resp.StatusCode)
	}
	if profile["user"].(map[string]any)["stars"].(float64) != 1 {
		t.Fatalf("expected 1 star on profile, got %v", profile)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	server := newTestServer(t)

	routes := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPost, "/api/quiz"},
		{http.MethodGet, "/api/quiz"},
		{http.MethodGet, "/api/quiz/some-id"},
		{http.MethodPost, "/api/quiz/submit"},
		{http.MethodPost, "/api/quiz/some-id/questions"},
	}
	for _, route := range routes {
		resp, _ := server.do(t, route.method, route.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token, got %d", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestCreateQuizForbiddenForStudents(t *testing.T) {
	server := newTestServer(t)
	_, studentToken := server.register(t, "Budi", "budi@sekolah.id", "student")

	resp, _ := server.do(t, http.MethodPost, "/api/quiz", studentToken, map[string]any{
		"title":     "Hewan 1",
		"questions": []map[string]string{{"questionText": "q", "answer": "a"}},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", resp.StatusCode)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	server := newTestServer(t)
	server.register(t, "A", "A@x.com", "student")

	resp, _ := server.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "B", "email": "a@x.com", "password": "pw", "role": "student",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := newTestServer(t)
	server.register(t, "A", "a@x.com", "student")

	for _, body := range []map[string]string{
		{"email": "a@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "rahasia123"},
	} {
		resp, _ := server.do(t, http.MethodPost, "/api/auth/login", "", body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %v, got %d", body, resp.StatusCode)
		}
	}
}

func TestGetQuizNotFound(t *testing.T) {
	server := newTestServer(t)
	_, studentToken := server.register(t, "Budi", "budi@sekolah.id", "student")

	resp, _ := server.do(t, http.MethodGet, "/api/quiz/no-such-quiz", studentToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// Empty index also reports 404.
	resp, _ = server.do(t, http.MethodGet, "/api/quiz", studentToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for empty index, got %d", resp.StatusCode)
	}
}
