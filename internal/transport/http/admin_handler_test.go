package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func newAdminFixture(t *testing.T) (*app.Engine, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := memory.NewBroker()
	engine := app.NewEngine(memory.NewSessionStore(), broker, logger, app.Options{
		DefaultRound: 5 * time.Second,
	})
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Pick B",
					Options: []domain.Option{
						{ID: "a", Text: "A"},
						{ID: "b", Text: "B", Correct: true},
					},
					TimeLimitSec: 5,
				},
			},
		},
	}), time.Minute)

	mux := http.NewServeMux()
	NewAdminHandler(engine, quizzes, logger).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return engine, srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAdminCreateStartLeaderboard(t *testing.T) {
	engine, srv := newAdminFixture(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{
		"quizId": "quiz-1", "creatorId": "host",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("expected a session id")
	}

	if err := engine.JoinSession(created.SessionID, "p1", "Pat"); err != nil {
		t.Fatalf("join: %v", err)
	}

	resp = postJSON(t, srv.URL+"/sessions/"+created.SessionID+"/start", map[string]string{
		"callerId": "host",
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/sessions/" + created.SessionID + "/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var lb domain.Leaderboard
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].ParticipantID != "p1" {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
}

func TestAdminStartRequiresCreator(t *testing.T) {
	engine, srv := newAdminFixture(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{
		"quizId": "quiz-1", "creatorId": "host",
	})
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := engine.JoinSession(created.SessionID, "p1", "Pat"); err != nil {
		t.Fatalf("join: %v", err)
	}

	resp = postJSON(t, srv.URL+"/sessions/"+created.SessionID+"/start", map[string]string{
		"callerId": "p1",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAdminErrorsMapToStatusCodes(t *testing.T) {
	_, srv := newAdminFixture(t)

	// Unknown quiz on create.
	resp := postJSON(t, srv.URL+"/sessions", map[string]string{
		"quizId": "missing", "creatorId": "host",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", resp.StatusCode)
	}

	// Unknown session on start.
	resp = postJSON(t, srv.URL+"/sessions/missing/start", map[string]string{
		"callerId": "host",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.StatusCode)
	}

	// Missing body fields.
	resp = postJSON(t, srv.URL+"/sessions", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty create, got %d", resp.StatusCode)
	}
}
