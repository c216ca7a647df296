package domain

import "time"

// EventType tags the closed set of broadcast event variants.
type EventType string

const (
	EventJoined         EventType = "JOINED"
	EventQuestionOpened EventType = "QUESTION_OPENED"
	EventAnswerResult   EventType = "ANSWER_RESULT"
	EventLeaderboard    EventType = "LEADERBOARD"
	EventEnded          EventType = "ENDED"
)

// Event is the envelope published on a session's channel. ParticipantID is
// set only on unicast events (currently answer results).
type Event struct {
	Type          EventType   `json:"type"`
	SessionID     string      `json:"sessionId"`
	ParticipantID string      `json:"participantId,omitempty"`
	Payload       interface{} `json:"payload,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewEvent creates a session-wide event.
func NewEvent(eventType EventType, sessionID string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewParticipantEvent creates an event addressed to a single participant.
func NewParticipantEvent(eventType EventType, sessionID, participantID string, payload interface{}) Event {
	event := NewEvent(eventType, sessionID, payload)
	event.ParticipantID = participantID
	return event
}

// JoinedPayload is broadcast when a participant joins a session.
type JoinedPayload struct {
	ParticipantID    string `json:"participantId"`
	DisplayName      string `json:"displayName"`
	ParticipantCount int    `json:"participantCount"`
}

// EndedPayload is broadcast once when a session reaches its terminal state.
type EndedPayload struct {
	Reason         string `json:"reason"` // "completed" or "ended_early"
	QuestionsAsked int    `json:"questionsAsked"`
}
