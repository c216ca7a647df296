package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// AdminHandler is the thin REST surface for lifecycle operations driven by a
// session creator: create, start, end, and leaderboard reads. Participants
// use the websocket surface instead.
type AdminHandler struct {
	engine  *app.Engine
	quizzes app.QuizRepository
	logger  *slog.Logger
}

func NewAdminHandler(engine *app.Engine, quizzes app.QuizRepository, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{engine: engine, quizzes: quizzes, logger: logger}
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("POST /sessions/{id}/start", h.startSession)
	mux.HandleFunc("POST /sessions/{id}/end", h.endSession)
	mux.HandleFunc("GET /sessions/{id}/leaderboard", h.leaderboard)
}

type createSessionRequest struct {
	QuizID    string `json:"quizId"`
	CreatorID string `json:"creatorId"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

type callerRequest struct {
	CallerID string `json:"callerId"`
}

func (h *AdminHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" || req.CreatorID == "" {
		http.Error(w, "quizId and creatorId are required", http.StatusBadRequest)
		return
	}

	quiz, err := h.quizzes.GetQuiz(r.Context(), req.QuizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sessionID, err := h.engine.CreateSession(quiz, req.CreatorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: sessionID})
}

func (h *AdminHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CallerID == "" {
		http.Error(w, "callerId is required", http.StatusBadRequest)
		return
	}
	if err := h.engine.StartSession(r.PathValue("id"), req.CallerID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) endSession(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CallerID == "" {
		http.Error(w, "callerId is required", http.StatusBadRequest)
		return
	}
	if err := h.engine.EndSessionEarly(r.PathValue("id"), req.CallerID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.engine.GetLeaderboard(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lb)
}

func (h *AdminHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("write response", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidDefinition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyStarted),
		errors.Is(err, domain.ErrSessionNotJoinable),
		errors.Is(err, domain.ErrQuestionClosed),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrNotAParticipant):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
