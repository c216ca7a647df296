package app

import (
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Session is the mutable runtime aggregate for one live quiz instance. All
// mutating operations on a session serialize behind its own mutex; unrelated
// sessions never contend.
type Session struct {
	id        string
	quiz      domain.Quiz
	creatorID string
	createdAt time.Time
	now       func() time.Time

	mu            sync.Mutex
	state         domain.SessionState
	questionIdx   int // -1 before start, len(questions) once ended
	questionOpen  bool
	openedAt      time.Time
	closedThrough int // index of the last closed question, -1 initially
	roundGen      int // bumped on every open/close; stale timers check it
	timer         *time.Timer
	participants  map[string]*participant
	joinOrder     []string
	endedAt       time.Time

	// outbox holds broadcast closures queued under mu and drained after it
	// is released, so published events follow state-transition order without
	// network writes ever happening under the session lock.
	outMu  sync.Mutex
	outbox []func()
}

// participant is the per-user runtime record within a session.
type participant struct {
	id           string
	displayName  string
	joinedAt     time.Time
	score        int
	answers      map[int]domain.Answer // at most one entry per question index
	disconnected bool
}

// NewSession is exported for infrastructure layers and their tests.
func NewSession(id string, quiz domain.Quiz, creatorID string) *Session {
	return newSession(id, quiz, creatorID, time.Now)
}

func newSession(id string, quiz domain.Quiz, creatorID string, now func() time.Time) *Session {
	return &Session{
		id:            id,
		quiz:          quiz,
		creatorID:     creatorID,
		createdAt:     now(),
		now:           now,
		state:         domain.SessionCreated,
		questionIdx:   -1,
		closedThrough: -1,
		participants:  make(map[string]*participant),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State reports the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ParticipantCount reports the current roster size.
func (s *Session) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// queueLocked appends a broadcast closure to the outbox. Caller holds s.mu.
func (s *Session) queueLocked(publish func()) {
	s.outbox = append(s.outbox, publish)
}

// flush drains the outbox. outMu admits one drainer at a time so events are
// delivered in the order they were queued.
func (s *Session) flush() {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	for {
		s.mu.Lock()
		pending := s.outbox
		s.outbox = nil
		s.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, publish := range pending {
			publish()
		}
	}
}

// stopTimerLocked cancels the pending round timer, if any. Caller holds s.mu.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// allAnsweredLocked reports whether every currently-joined participant has an
// answer recorded for the open question. Caller holds s.mu.
func (s *Session) allAnsweredLocked() bool {
	if len(s.participants) == 0 {
		return false
	}
	for _, p := range s.participants {
		if _, ok := p.answers[s.questionIdx]; !ok {
			return false
		}
	}
	return true
}
