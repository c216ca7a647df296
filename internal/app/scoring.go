package app

import "live-quiz-service/internal/domain"

// Grade checks a selected option against a question. Correctness is an exact
// identity match with the question's designated correct option; a correct
// pick earns the question's configured points (1 if unset), anything else
// earns zero. Unknown option ids grade as incorrect. No partial credit, no
// time decay.
func Grade(question domain.Question, optionID string) (bool, int) {
	for _, opt := range question.Options {
		if opt.ID != optionID {
			continue
		}
		if !opt.Correct {
			return false, 0
		}
		points := question.Points
		if points == 0 {
			points = 1
		}
		return true, points
	}
	return false, 0
}
