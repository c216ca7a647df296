package domain

import "errors"

var (
	// ErrInvalidDefinition is returned when a quiz definition cannot back a session.
	ErrInvalidDefinition = errors.New("quiz definition has no questions")
	// ErrSessionNotFound is returned when a session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by stores on duplicate session ids.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotJoinable is returned when joining an ended or exhausted session.
	ErrSessionNotJoinable = errors.New("session is not joinable")
	// ErrNotAuthorized is returned when a caller other than the creator drives the lifecycle.
	ErrNotAuthorized = errors.New("only the session creator may do this")
	// ErrAlreadyStarted is returned when starting a session that left the created state.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrQuestionClosed is returned when a submission targets a question that is not open.
	ErrQuestionClosed = errors.New("question is closed")
	// ErrDuplicateAnswer is returned when a participant already answered this question.
	ErrDuplicateAnswer = errors.New("answer already recorded for this question")
	// ErrNotAParticipant is returned when a user submits without having joined.
	ErrNotAParticipant = errors.New("participant has not joined the session")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)
