package memory

import (
	"context"

	"quiz-subgraphs/internal/domain"
)

// StaticQuizLoader serves a fixed list of quizzes (defaults, tests, demos).
type StaticQuizLoader struct {
	quizzes []domain.Quiz
}

func NewStaticQuizLoader(quizzes ...domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	return append([]domain.Quiz(nil), l.quizzes...), nil
}
