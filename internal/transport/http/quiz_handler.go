package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/domain"
)

// QuizHandler exposes quiz authoring, listing, and submission.
type QuizHandler struct {
	quizzes *app.QuizService
}

func NewQuizHandler(quizzes *app.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

type createQuizRequest struct {
	Title     string              `json:"title"`
	Questions []app.QuestionInput `json:"questions"`
}

type addQuestionRequest struct {
	Text   string `json:"questionText"`
	Answer string `json:"answer"`
}

type submitRequest struct {
	QuizID  string                   `json:"quizId"`
	Answers []domain.SubmittedAnswer `json:"answers"`
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeServiceError(w, domain.ErrUnauthorized)
		return
	}
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, domain.ErrInvalidInput)
		return
	}

	quiz, err := h.quizzes.Create(r.Context(), req.Title, req.Questions, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.quizzes.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.GetForStudent(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeServiceError(w, domain.ErrUnauthorized)
		return
	}
	var req addQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, domain.ErrInvalidInput)
		return
	}

	quiz, err := h.quizzes.AddQuestion(r.Context(), mux.Vars(r)["quizId"], req.Text, req.Answer, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeServiceError(w, domain.ErrUnauthorized)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, domain.ErrInvalidInput)
		return
	}

	result, err := h.quizzes.Submit(r.Context(), req.QuizID, user.ID, req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
