package domain

import "time"

// SessionState is the lifecycle state of a live quiz session.
type SessionState string

const (
	// SessionCreated means the session exists but no question has opened yet.
	SessionCreated SessionState = "created"
	// SessionActive means the session is progressing through questions.
	SessionActive SessionState = "active"
	// SessionEnded is terminal; an ended session is immutable.
	SessionEnded SessionState = "ended"
)

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []Option `json:"options"`
	Points       int      `json:"points"`       // defaults to 1 if zero
	TimeLimitSec int      `json:"timeLimitSec"` // defaults to the configured round length if zero
}

// CorrectOption returns the designated correct option, if any.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is an immutable ordered set of questions supplied at session creation.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Questions     []Question `json:"questions"`
	RevealAnswers bool       `json:"revealAnswers"`
}

// Answer records a participant's single submission for one question index.
// It is created once and never overwritten.
type Answer struct {
	QuestionIndex int       `json:"questionIndex"`
	OptionID      string    `json:"optionId"`
	SubmittedAt   time.Time `json:"submittedAt"`
	ClientTime    time.Time `json:"clientTime,omitempty"`
	Correct       bool      `json:"correct"`
	Awarded       int       `json:"awarded"`
}

// AnswerResult summarizes the outcome of a submission for a single user.
// CorrectOptionID is only populated when the quiz reveals answers.
type AnswerResult struct {
	QuestionIndex   int    `json:"questionIndex"`
	Correct         bool   `json:"correct"`
	Awarded         int    `json:"awarded"`
	TotalScore      int    `json:"totalScore"`
	CorrectOptionID string `json:"correctOptionId,omitempty"`
}

// LeaderboardEntry is a ranked view of one participant.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
	Answered      int    `json:"answered"`
	Rank          int    `json:"rank"`
}

// Leaderboard captures the ordered scoreboard for a session at a point in time.
// QuestionIndex is the index of the most recently closed question, or -1 when
// no question has closed yet.
type Leaderboard struct {
	SessionID     string             `json:"sessionId"`
	QuestionIndex int                `json:"questionIndex"`
	Final         bool               `json:"final"`
	Entries       []LeaderboardEntry `json:"entries"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// OptionView is the participant-facing projection of an option.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is what gets broadcast when a question opens: prompt and
// options only, never correctness flags.
type QuestionView struct {
	Index            int          `json:"index"`
	Prompt           string       `json:"prompt"`
	Options          []OptionView `json:"options"`
	Points           int          `json:"points"`
	RemainingSeconds int          `json:"remainingSeconds"`
}

// ViewOf strips a question down to its broadcastable form.
func ViewOf(index int, q Question, remainingSeconds int) QuestionView {
	options := make([]OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, OptionView{ID: opt.ID, Text: opt.Text})
	}
	points := q.Points
	if points == 0 {
		points = 1
	}
	return QuestionView{
		Index:            index,
		Prompt:           q.Prompt,
		Options:          options,
		Points:           points,
		RemainingSeconds: remainingSeconds,
	}
}
