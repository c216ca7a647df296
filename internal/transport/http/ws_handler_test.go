package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

type wireEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

func newWSFixture(t *testing.T) (*app.Engine, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := memory.NewBroker()
	engine := app.NewEngine(memory.NewSessionStore(), broker, logger, app.Options{
		DefaultRound: 5 * time.Second,
	})
	handler := NewWSHandler(engine, broker, logger)
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return engine, srv
}

func dialWS(t *testing.T, srv *httptest.Server, sessionID, userID, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"?sessionId=" + sessionID + "&userId=" + userID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var event wireEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestWSFullSessionFlow(t *testing.T) {
	engine, srv := newWSFixture(t)

	quiz := domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4", Correct: true},
				},
				Points:       2,
				TimeLimitSec: 5,
			},
		},
	}
	sessionID, err := engine.CreateSession(quiz, "host")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	conn := dialWS(t, srv, sessionID, "p1", "Pat")

	joined := readEvent(t, conn)
	if joined.Type != string(domain.EventJoined) {
		t.Fatalf("expected JOINED first, got %s", joined.Type)
	}

	if err := engine.StartSession(sessionID, "host"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	opened := readEvent(t, conn)
	if opened.Type != string(domain.EventQuestionOpened) {
		t.Fatalf("expected QUESTION_OPENED, got %s", opened.Type)
	}
	var view domain.QuestionView
	if err := json.Unmarshal(opened.Payload, &view); err != nil {
		t.Fatalf("unmarshal question: %v", err)
	}
	if view.Index != 0 || len(view.Options) != 2 {
		t.Fatalf("unexpected question view: %+v", view)
	}

	answer := map[string]interface{}{
		"type": "answer",
		"payload": map[string]interface{}{
			"questionIndex": 0,
			"optionId":      "o2",
			"clientTime":    time.Now().UTC(),
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	result := readEvent(t, conn)
	if result.Type != string(domain.EventAnswerResult) {
		t.Fatalf("expected ANSWER_RESULT, got %s", result.Type)
	}
	var graded domain.AnswerResult
	if err := json.Unmarshal(result.Payload, &graded); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !graded.Correct || graded.Awarded != 2 {
		t.Fatalf("unexpected grading: %+v", graded)
	}

	// Sole participant answered, so the round closes and the session ends.
	lb := readEvent(t, conn)
	if lb.Type != string(domain.EventLeaderboard) {
		t.Fatalf("expected LEADERBOARD, got %s", lb.Type)
	}
	ended := readEvent(t, conn)
	if ended.Type != string(domain.EventEnded) {
		t.Fatalf("expected ENDED, got %s", ended.Type)
	}
	var payload domain.EndedPayload
	if err := json.Unmarshal(ended.Payload, &payload); err != nil {
		t.Fatalf("unmarshal ended: %v", err)
	}
	if payload.Reason != "completed" || payload.QuestionsAsked != 1 {
		t.Fatalf("unexpected ended payload: %+v", payload)
	}
}

func TestWSRejectsMissingParams(t *testing.T) {
	_, srv := newWSFixture(t)

	resp, err := http.Get(srv.URL + "?sessionId=s1&userId=p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWSUnknownSessionGetsError(t *testing.T) {
	_, srv := newWSFixture(t)

	conn := dialWS(t, srv, "missing", "p1", "Pat")
	event := readEvent(t, conn)
	if event.Type != "ERROR" {
		t.Fatalf("expected ERROR event, got %s", event.Type)
	}
}

func TestWSDoesNotLeakOtherParticipantsResults(t *testing.T) {
	engine, srv := newWSFixture(t)

	quiz := domain.Quiz{
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
	}
	sessionID, err := engine.CreateSession(quiz, "host")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	first := dialWS(t, srv, sessionID, "p1", "One")
	second := dialWS(t, srv, sessionID, "p2", "Two")

	if readEvent(t, first).Type != string(domain.EventJoined) {
		t.Fatal("expected JOINED on first")
	}
	// Wait for p2's own join before starting, so both are in the roster.
	if readEvent(t, second).Type != string(domain.EventJoined) {
		t.Fatal("expected JOINED on second")
	}
	if err := engine.StartSession(sessionID, "host"); err != nil {
		t.Fatalf("start session: %v", err)
	}
	drainTo(t, first, string(domain.EventQuestionOpened))
	drainTo(t, second, string(domain.EventQuestionOpened))

	answer := map[string]interface{}{
		"type": "answer",
		"payload": map[string]interface{}{
			"questionIndex": 0,
			"optionId":      "b",
		},
	}
	if err := first.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// p1 receives the unicast result; p2 must not.
	if readEvent(t, first).Type != string(domain.EventAnswerResult) {
		t.Fatal("expected ANSWER_RESULT on answering connection")
	}
	answer["payload"].(map[string]interface{})["optionId"] = "a"
	if err := second.WriteJSON(answer); err != nil {
		t.Fatalf("write answer 2: %v", err)
	}
	// The very next event p2 sees is its own result, not p1's.
	event := readEvent(t, second)
	if event.Type != string(domain.EventAnswerResult) {
		t.Fatalf("expected p2's own ANSWER_RESULT, got %s", event.Type)
	}
	var graded domain.AnswerResult
	if err := json.Unmarshal(event.Payload, &graded); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if graded.Correct {
		t.Fatalf("p2 answered wrong but got someone else's result: %+v", graded)
	}
}

func drainTo(t *testing.T, conn *websocket.Conn, eventType string) {
	t.Helper()
	for i := 0; i < 10; i++ {
		if readEvent(t, conn).Type == eventType {
			return
		}
	}
	t.Fatalf("never received %s", eventType)
}
