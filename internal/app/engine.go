package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// SessionStore abstracts how live sessions are kept (in-memory, Redis-backed).
type SessionStore interface {
	Create(session *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Options tune engine timing behavior.
type Options struct {
	// DefaultRound is the round length for questions without a time limit.
	DefaultRound time.Duration
	// Retention is how long an ended session stays readable before the store
	// drops it. Zero keeps ended sessions until process exit.
	Retention time.Duration
	// Clock overrides time.Now, for deterministic tests.
	Clock func() time.Time
}

const defaultRoundDuration = 30 * time.Second

// Engine drives every live session from creation through question-by-question
// progression to completion. It is the sole writer of session lifecycle state
// and question indices.
type Engine struct {
	store        SessionStore
	broadcast    Broadcaster
	logger       *slog.Logger
	now          func() time.Time
	defaultRound time.Duration
	retention    time.Duration
}

func NewEngine(store SessionStore, broadcast Broadcaster, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	round := opts.DefaultRound
	if round <= 0 {
		round = defaultRoundDuration
	}
	return &Engine{
		store:        store,
		broadcast:    broadcast,
		logger:       logger,
		now:          now,
		defaultRound: round,
		retention:    opts.Retention,
	}
}

// CreateSession allocates a new session for the given definition. The quiz
// must contain at least one question.
func (e *Engine) CreateSession(quiz domain.Quiz, creatorID string) (string, error) {
	if len(quiz.Questions) == 0 {
		return "", domain.ErrInvalidDefinition
	}
	id := uuid.NewString()
	session := newSession(id, quiz, creatorID, e.now)
	if err := e.store.Create(session); err != nil {
		return "", err
	}
	e.logger.Info("session created",
		"sessionId", id, "quizId", quiz.ID, "questions", len(quiz.Questions))
	return id, nil
}

// JoinSession registers a participant. Re-joining an existing participant is
// a no-op apart from clearing a stale disconnect mark.
func (e *Engine) JoinSession(sessionID, participantID, displayName string) error {
	s, err := e.store.Get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == domain.SessionEnded || s.questionIdx >= len(s.quiz.Questions) {
		s.mu.Unlock()
		return domain.ErrSessionNotJoinable
	}
	if p, ok := s.participants[participantID]; ok {
		p.disconnected = false
		s.mu.Unlock()
		return nil
	}
	s.participants[participantID] = &participant{
		id:          participantID,
		displayName: displayName,
		joinedAt:    s.now(),
		answers:     make(map[int]domain.Answer),
	}
	s.joinOrder = append(s.joinOrder, participantID)
	count := len(s.participants)
	s.queueLocked(func() {
		e.broadcast.PublishJoined(sessionID, domain.JoinedPayload{
			ParticipantID:    participantID,
			DisplayName:      displayName,
			ParticipantCount: count,
		})
	})
	s.mu.Unlock()
	s.flush()
	return nil
}

// StartSession transitions a created session to active and opens question 0.
// Only the creator may start a session.
func (e *Engine) StartSession(sessionID, callerID string) error {
	s, err := e.store.Get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.creatorID != callerID {
		s.mu.Unlock()
		return domain.ErrNotAuthorized
	}
	if s.state != domain.SessionCreated {
		s.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	s.state = domain.SessionActive
	e.openQuestionLocked(s, 0)
	s.mu.Unlock()
	s.flush()

	e.logger.Info("session started", "sessionId", sessionID)
	return nil
}

// SubmitAnswer grades and records a participant's answer for the currently
// open question. The first accepted submission per question wins; later ones
// are rejected, never merged. This is the only path that mutates scores.
func (e *Engine) SubmitAnswer(sessionID, participantID string, questionIndex int, optionID string, clientTime time.Time) (domain.AnswerResult, error) {
	s, err := e.store.Get(sessionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	s.mu.Lock()
	p, ok := s.participants[participantID]
	if !ok {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrNotAParticipant
	}
	if s.state != domain.SessionActive || !s.questionOpen || s.questionIdx != questionIndex {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrQuestionClosed
	}
	if _, dup := p.answers[questionIndex]; dup {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrDuplicateAnswer
	}

	question := s.quiz.Questions[questionIndex]
	correct, awarded := Grade(question, optionID)
	p.answers[questionIndex] = domain.Answer{
		QuestionIndex: questionIndex,
		OptionID:      optionID,
		SubmittedAt:   s.now(),
		ClientTime:    clientTime,
		Correct:       correct,
		Awarded:       awarded,
	}
	p.score += awarded

	result := domain.AnswerResult{
		QuestionIndex: questionIndex,
		Correct:       correct,
		Awarded:       awarded,
		TotalScore:    p.score,
	}
	if s.quiz.RevealAnswers {
		if opt, ok := question.CorrectOption(); ok {
			result.CorrectOptionID = opt.ID
		}
	}
	s.queueLocked(func() {
		e.broadcast.PublishAnswerResult(sessionID, participantID, result)
	})

	// The question also closes once every currently-joined participant has
	// answered; late joiners raise the bar but never reopen a closed round.
	if s.allAnsweredLocked() {
		e.advanceLocked(s)
	}
	s.mu.Unlock()
	s.flush()
	return result, nil
}

// EndSessionEarly forces a session into its terminal state. Ending an already
// ended session is a no-op. Only the creator may end a session.
func (e *Engine) EndSessionEarly(sessionID, callerID string) error {
	s, err := e.store.Get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.creatorID != callerID {
		s.mu.Unlock()
		return domain.ErrNotAuthorized
	}
	if s.state == domain.SessionEnded {
		s.mu.Unlock()
		return nil
	}
	e.finalizeLocked(s, "ended_early")
	s.mu.Unlock()
	s.flush()
	return nil
}

// GetLeaderboard computes the ranked standings. Safe at any time, including
// after the session ended (until the store retention drops it).
func (e *Engine) GetLeaderboard(sessionID string) (domain.Leaderboard, error) {
	s, err := e.store.Get(sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	s.mu.Lock()
	lb := s.leaderboardLocked(s.state == domain.SessionEnded)
	s.mu.Unlock()
	return lb, nil
}

// MarkDisconnected flags a participant whose transport dropped. Best-effort
// metadata only: scores and roster membership are unaffected, and the
// participant may keep answering if the transport reconnects.
func (e *Engine) MarkDisconnected(sessionID, participantID string) {
	s, err := e.store.Get(sessionID)
	if err != nil {
		return
	}
	s.mu.Lock()
	if p, ok := s.participants[participantID]; ok {
		p.disconnected = true
	}
	s.mu.Unlock()
	e.logger.Debug("participant disconnected", "sessionId", sessionID, "participantId", participantID)
}

// openQuestionLocked opens the question at idx: records the start timestamp,
// arms the round timer, and queues the question broadcast. Caller holds s.mu.
func (e *Engine) openQuestionLocked(s *Session, idx int) {
	question := s.quiz.Questions[idx]
	limit := time.Duration(question.TimeLimitSec) * time.Second
	if limit <= 0 {
		limit = e.defaultRound
	}

	s.questionIdx = idx
	s.questionOpen = true
	s.openedAt = s.now()
	s.roundGen++
	gen := s.roundGen
	s.timer = time.AfterFunc(limit, func() {
		e.advance(s, gen)
	})

	view := domain.ViewOf(idx, question, int(limit/time.Second))
	s.queueLocked(func() {
		e.broadcast.PublishQuestionOpened(s.id, view)
	})
}

// advance is the round-timer callback. The generation counter lets a timer
// that lost the race against an all-answered advance (or an early end)
// recognize its question already closed and no-op.
func (e *Engine) advance(s *Session, gen int) {
	s.mu.Lock()
	if s.state != domain.SessionActive || !s.questionOpen || s.roundGen != gen {
		s.mu.Unlock()
		return
	}
	e.advanceLocked(s)
	s.mu.Unlock()
	s.flush()
}

// advanceLocked closes the current question, queues the leaderboard snapshot,
// and either opens the next question or finalizes the session. Caller holds
// s.mu.
func (e *Engine) advanceLocked(s *Session) {
	closedIdx := s.questionIdx
	s.questionOpen = false
	s.roundGen++
	s.stopTimerLocked()
	s.closedThrough = closedIdx

	next := closedIdx + 1
	if next >= len(s.quiz.Questions) {
		e.finalizeLocked(s, "completed")
		return
	}

	lb := s.leaderboardLocked(false)
	s.queueLocked(func() {
		e.broadcast.PublishLeaderboard(s.id, lb)
	})
	e.openQuestionLocked(s, next)
}

// finalizeLocked performs the terminal transition: cancels any pending round
// timer, queues the final leaderboard and ended events, and schedules the
// store cleanup. Caller holds s.mu.
func (e *Engine) finalizeLocked(s *Session, reason string) {
	s.stopTimerLocked()
	s.roundGen++
	if s.questionOpen {
		// An interrupted open round still counts the answers it collected.
		s.closedThrough = s.questionIdx
		s.questionOpen = false
	}
	asked := s.questionIdx + 1
	s.questionIdx = len(s.quiz.Questions)
	s.state = domain.SessionEnded
	s.endedAt = s.now()

	lb := s.leaderboardLocked(true)
	sessionID := s.id
	s.queueLocked(func() {
		e.broadcast.PublishLeaderboard(sessionID, lb)
	})
	s.queueLocked(func() {
		e.broadcast.PublishEnded(sessionID, domain.EndedPayload{
			Reason:         reason,
			QuestionsAsked: asked,
		})
	})

	if e.retention > 0 {
		time.AfterFunc(e.retention, func() {
			e.store.Delete(sessionID)
		})
	}
	e.logger.Info("session ended", "sessionId", sessionID, "reason", reason, "questionsAsked", asked)
}
