package app_test

import (
	"testing"

	"quiz-subgraphs/internal/app"
	"quiz-subgraphs/internal/domain"
)

// subscriptionQuiz mirrors the demo catalog: two questions, the right answer
// of question "0" is choice "1".
func subscriptionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "0",
		Title: "Subscription quiz",
		Questions: []domain.Question{
			{
				ID:    "0",
				Title: "How many protocols are currently supported by the router for subscriptions?",
				Choices: []domain.Choice{
					{ID: "0", Text: "1"},
					{ID: "1", Text: "2"},
					{ID: "2", Text: "3"},
					{ID: "3", Text: "4"},
				},
				CorrectChoiceID: "1",
			},
			{
				ID:    "1",
				Title: "Which protocol connects the client and the router?",
				Choices: []domain.Choice{
					{ID: "0", Text: "HTTP multipart connection"},
					{ID: "1", Text: "Server-sent events (SSE)"},
					{ID: "2", Text: "WebSocket protocol"},
				},
				CorrectChoiceID: "0",
			},
		},
	}
}

func newTestEngine(t *testing.T, quizzes ...domain.Quiz) *app.QuizEngine {
	t.Helper()
	if len(quizzes) == 0 {
		quizzes = []domain.Quiz{subscriptionQuiz()}
	}
	catalog, err := app.NewCatalog(quizzes)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return app.NewQuizEngine(app.NewState(catalog))
}
