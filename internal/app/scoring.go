package app

import "live-quiz-service/internal/domain"

// Evaluate scores a submission against a question. A missing choice is always
// wrong. The right choice is returned regardless so clients can reveal it.
func Evaluate(question domain.Question, choiceID *string) (bool, domain.Choice) {
	right, _ := question.RightChoice()
	if choiceID == nil {
		return false, right
	}
	return *choiceID == question.GoodAnswer, right
}
