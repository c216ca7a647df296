package memory

import (
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestBrokerDeliversSessionEvents(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("s1")
	defer cancel()

	broker.PublishJoined("s1", domain.JoinedPayload{ParticipantID: "p1", ParticipantCount: 1})

	select {
	case event := <-events:
		if event.Type != domain.EventJoined || event.SessionID != "s1" {
			t.Fatalf("unexpected event: %+v", event)
		}
		payload := event.Payload.(domain.JoinedPayload)
		if payload.ParticipantID != "p1" || payload.ParticipantCount != 1 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBrokerScopesBySession(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("s1")
	defer cancel()

	broker.PublishEnded("other", domain.EndedPayload{Reason: "completed"})

	select {
	case event := <-events:
		t.Fatalf("received event for foreign session: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerUnicastCarriesParticipantID(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("s1")
	defer cancel()

	broker.PublishAnswerResult("s1", "p2", domain.AnswerResult{QuestionIndex: 0, Correct: true})

	event := <-events
	if event.Type != domain.EventAnswerResult || event.ParticipantID != "p2" {
		t.Fatalf("expected unicast answer result for p2, got %+v", event)
	}
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("s1")
	cancel()
	// Cancel is safe to call twice.
	cancel()

	if _, ok := <-events; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// Publishing to a session with no subscribers must not panic or block.
	broker.PublishEnded("s1", domain.EndedPayload{Reason: "completed"})
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("s1")
	defer cancel()

	// Overfill the subscriber buffer; publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			broker.PublishLeaderboard("s1", domain.Leaderboard{SessionID: "s1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
	if len(events) == 0 {
		t.Fatal("expected buffered events")
	}
}
