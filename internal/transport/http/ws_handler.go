package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

// WSHandler wires websocket connections into the session engine: connecting
// joins the session, inbound messages submit answers, and the broker's event
// stream is forwarded outbound.
type WSHandler struct {
	engine   *app.Engine
	broker   *memory.Broker
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, broker *memory.Broker, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		engine: engine,
		broker: broker,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex int       `json:"questionIndex"`
	OptionID      string    `json:"optionId"`
	ClientTime    time.Time `json:"clientTime"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and joins the caller into the
// requested session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if sessionID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing sessionId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Subscribe before joining so the join event is not missed.
	updates, cancel := h.broker.Subscribe(sessionID)
	defer cancel()

	if err := h.engine.JoinSession(sessionID, userID, displayName); err != nil {
		_ = conn.WriteJSON(domain.NewEvent("ERROR", sessionID, errorPayload{Message: err.Error()}))
		return
	}
	defer h.engine.MarkDisconnected(sessionID, userID)

	send := make(chan domain.Event, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for event := range send {
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				// Unicast events reach their addressee only.
				if event.ParticipantID != "" && event.ParticipantID != userID {
					continue
				}
				select {
				case send <- event:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- domain.NewEvent("ERROR", sessionID, errorPayload{Message: "invalid answer payload"})
				continue
			}
			_, err := h.engine.SubmitAnswer(sessionID, userID, payload.QuestionIndex, payload.OptionID, payload.ClientTime)
			if err != nil {
				send <- domain.NewEvent("ERROR", sessionID, errorPayload{Message: err.Error()})
			}
			// The accepted result arrives through the broker as a unicast
			// ANSWER_RESULT event.
		case "leaderboard":
			lb, err := h.engine.GetLeaderboard(sessionID)
			if err != nil {
				send <- domain.NewEvent("ERROR", sessionID, errorPayload{Message: err.Error()})
				continue
			}
			send <- domain.NewEvent(domain.EventLeaderboard, sessionID, lb)
		default:
			send <- domain.NewEvent("ERROR", sessionID, errorPayload{Message: "unsupported message type"})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
