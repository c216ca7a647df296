package memory

import (
	"sync"

	"live-quiz-service/internal/domain"
)

// Broker is an in-process implementation of app.Broadcaster that fans events
// out to channel subscribers, keyed by session id. The websocket transport
// subscribes one channel per connection; unicast events carry a participant
// id for the subscriber to filter on.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan domain.Event]struct{}),
	}
}

// Subscribe returns a channel receiving all events for the given session.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *Broker) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan domain.Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[sessionID][ch]; ok {
			delete(b.subs[sessionID], ch)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broker) PublishJoined(sessionID string, payload domain.JoinedPayload) {
	b.publish(sessionID, domain.NewEvent(domain.EventJoined, sessionID, payload))
}

func (b *Broker) PublishQuestionOpened(sessionID string, question domain.QuestionView) {
	b.publish(sessionID, domain.NewEvent(domain.EventQuestionOpened, sessionID, question))
}

func (b *Broker) PublishAnswerResult(sessionID, participantID string, result domain.AnswerResult) {
	b.publish(sessionID, domain.NewParticipantEvent(domain.EventAnswerResult, sessionID, participantID, result))
}

func (b *Broker) PublishLeaderboard(sessionID string, leaderboard domain.Leaderboard) {
	b.publish(sessionID, domain.NewEvent(domain.EventLeaderboard, sessionID, leaderboard))
}

func (b *Broker) PublishEnded(sessionID string, payload domain.EndedPayload) {
	b.publish(sessionID, domain.NewEvent(domain.EventEnded, sessionID, payload))
}

func (b *Broker) publish(sessionID string, event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- event:
		default:
			// Drop for slow subscribers rather than block the session.
		}
	}
}
