// Package record holds the storage encoding of quiz content shared by the
// Postgres and Redis catalog sources. Unlike the API encoding it keeps the
// correct choice of every question.
package record

import (
	"encoding/json"
	"fmt"

	"quiz-subgraphs/internal/domain"
)

type quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []question `json:"questions"`
}

type question struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Choices         []domain.Choice `json:"choices"`
	CorrectChoiceID string          `json:"correctChoiceId"`
}

// Marshal encodes a quiz for storage.
func Marshal(q domain.Quiz) ([]byte, error) {
	rec := quiz{ID: q.ID, Title: q.Title, Questions: make([]question, 0, len(q.Questions))}
	for _, qu := range q.Questions {
		rec.Questions = append(rec.Questions, question{
			ID:              qu.ID,
			Title:           qu.Title,
			Choices:         qu.Choices,
			CorrectChoiceID: qu.CorrectChoiceID,
		})
	}
	return json.Marshal(rec)
}

// Unmarshal decodes a stored quiz. The returned quiz is not started.
func Unmarshal(data []byte) (domain.Quiz, error) {
	var rec quiz
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	q := domain.Quiz{
		ID:                   rec.ID,
		Title:                rec.Title,
		Questions:            make([]domain.Question, 0, len(rec.Questions)),
		CurrentQuestionIndex: domain.NotStarted,
	}
	for _, qu := range rec.Questions {
		q.Questions = append(q.Questions, domain.Question{
			ID:              qu.ID,
			Title:           qu.Title,
			Choices:         qu.Choices,
			CorrectChoiceID: qu.CorrectChoiceID,
		})
	}
	return q, nil
}
