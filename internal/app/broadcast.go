package app

import "live-quiz-service/internal/domain"

// Broadcaster pushes engine events to the pub/sub transport, addressed by
// session id as channel key. Implementations must never block session
// progression: failures are logged, not returned.
type Broadcaster interface {
	PublishJoined(sessionID string, payload domain.JoinedPayload)
	PublishQuestionOpened(sessionID string, question domain.QuestionView)
	// PublishAnswerResult is unicast to the submitting participant only.
	PublishAnswerResult(sessionID, participantID string, result domain.AnswerResult)
	PublishLeaderboard(sessionID string, leaderboard domain.Leaderboard)
	PublishEnded(sessionID string, payload domain.EndedPayload)
}

// FanoutBroadcaster duplicates every publish across multiple transports,
// e.g. the in-process broker for websocket clients plus redis pub/sub for
// other instances.
type FanoutBroadcaster struct {
	targets []Broadcaster
}

func NewFanoutBroadcaster(targets ...Broadcaster) *FanoutBroadcaster {
	return &FanoutBroadcaster{targets: targets}
}

func (f *FanoutBroadcaster) PublishJoined(sessionID string, payload domain.JoinedPayload) {
	for _, t := range f.targets {
		t.PublishJoined(sessionID, payload)
	}
}

func (f *FanoutBroadcaster) PublishQuestionOpened(sessionID string, question domain.QuestionView) {
	for _, t := range f.targets {
		t.PublishQuestionOpened(sessionID, question)
	}
}

func (f *FanoutBroadcaster) PublishAnswerResult(sessionID, participantID string, result domain.AnswerResult) {
	for _, t := range f.targets {
		t.PublishAnswerResult(sessionID, participantID, result)
	}
}

func (f *FanoutBroadcaster) PublishLeaderboard(sessionID string, leaderboard domain.Leaderboard) {
	for _, t := range f.targets {
		t.PublishLeaderboard(sessionID, leaderboard)
	}
}

func (f *FanoutBroadcaster) PublishEnded(sessionID string, payload domain.EndedPayload) {
	for _, t := range f.targets {
		t.PublishEnded(sessionID, payload)
	}
}
