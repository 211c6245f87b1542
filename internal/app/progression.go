package app

import "quiz-subgraphs/internal/domain"

// advanceLocked moves the quiz to its next question and returns it, or nil
// when the quiz has no questions. The first advance of a not started quiz
// clears its scores and reports fresh=true. Past the last question the quiz
// wraps to the first one; there is no terminal state.
func (g *game) advanceLocked() (q *domain.Question, fresh bool) {
	if g.current == domain.NotStarted {
		g.scores.reset()
		fresh = true
	}

	n := len(g.quiz.Questions)
	if n == 0 {
		return nil, fresh
	}

	if g.current == domain.NotStarted {
		g.current = 0
	} else {
		g.current = (g.current + 1) % n
	}
	question := g.quiz.Questions[g.current]
	return &question, fresh
}

// currentQuestionLocked resolves the live question. An index outside the
// question list falls back to the first question.
func (g *game) currentQuestionLocked() (domain.Question, error) {
	if g.current < 0 || len(g.quiz.Questions) == 0 {
		return domain.Question{}, domain.ErrNoCurrentQuestion
	}
	if g.current < len(g.quiz.Questions) {
		return g.quiz.Questions[g.current], nil
	}
	return g.quiz.Questions[0], nil
}
