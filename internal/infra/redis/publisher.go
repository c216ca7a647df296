package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

const publishTimeout = 2 * time.Second

// Publisher implements app.Broadcaster over Redis pub/sub. Session-wide
// events go to one channel per session; answer results go to a per-user
// subchannel so one participant's selection is never broadcast to the rest.
// Publish failures are logged and swallowed: broadcast outages must never
// stall session progression.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

func NewPublisher(client *redis.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// SessionChannel is the pub/sub channel carrying a session's shared events.
func SessionChannel(sessionID string) string {
	return "quiz:session:" + sessionID + ":events"
}

// ParticipantChannel carries events addressed to a single participant.
func ParticipantChannel(sessionID, participantID string) string {
	return SessionChannel(sessionID) + ":user:" + participantID
}

func (p *Publisher) PublishJoined(sessionID string, payload domain.JoinedPayload) {
	p.publish(SessionChannel(sessionID), domain.NewEvent(domain.EventJoined, sessionID, payload))
}

func (p *Publisher) PublishQuestionOpened(sessionID string, question domain.QuestionView) {
	p.publish(SessionChannel(sessionID), domain.NewEvent(domain.EventQuestionOpened, sessionID, question))
}

func (p *Publisher) PublishAnswerResult(sessionID, participantID string, result domain.AnswerResult) {
	event := domain.NewParticipantEvent(domain.EventAnswerResult, sessionID, participantID, result)
	p.publish(ParticipantChannel(sessionID, participantID), event)
}

func (p *Publisher) PublishLeaderboard(sessionID string, leaderboard domain.Leaderboard) {
	p.publish(SessionChannel(sessionID), domain.NewEvent(domain.EventLeaderboard, sessionID, leaderboard))
}

func (p *Publisher) PublishEnded(sessionID string, payload domain.EndedPayload) {
	p.publish(SessionChannel(sessionID), domain.NewEvent(domain.EventEnded, sessionID, payload))
}

func (p *Publisher) publish(channel string, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", "type", event.Type, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Warn("publish event", "channel", channel, "type", event.Type, "error", err)
	}
}
