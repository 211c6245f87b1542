package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-subgraphs/internal/domain"
)

const yamlCatalog = `
quizzes:
  - id: "0"
    title: Subscription quiz
    questions:
      - id: "0"
        title: How many protocols?
        correctChoiceId: "1"
        choices:
          - {id: "0", text: "1"}
          - {id: "1", text: "2"}
  - id: "1"
    title: Empty quiz
    questions: []
`

const jsonCatalog = `[
  {"id": "a", "title": "A", "questions": [
    {"id": "q", "title": "Q", "correctChoiceId": "y",
     "choices": [{"id": "x", "text": "X"}, {"id": "y", "text": "Y"}]}
  ]}
]`

func TestCatalogLoaderYAML(t *testing.T) {
	path := writeCatalog(t, "catalog.yaml", yamlCatalog)

	quizzes, err := NewCatalogLoader(path).LoadQuizzes(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(quizzes) != 2 || quizzes[0].ID != "0" || quizzes[1].ID != "1" {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
	q := quizzes[0].Questions[0]
	if q.CorrectChoiceID != "1" || len(q.Choices) != 2 || q.Choices[1].Text != "2" {
		t.Fatalf("unexpected question %+v", q)
	}
	for _, quiz := range quizzes {
		if quiz.CurrentQuestionIndex != domain.NotStarted {
			t.Fatalf("expected quiz %s not started", quiz.ID)
		}
	}
}

func TestCatalogLoaderJSONList(t *testing.T) {
	path := writeCatalog(t, "catalog.json", jsonCatalog)

	quizzes, err := NewCatalogLoader(path).LoadQuizzes(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Questions[0].CorrectChoiceID != "y" {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
}

func TestCatalogLoaderErrors(t *testing.T) {
	if _, err := NewCatalogLoader(filepath.Join(t.TempDir(), "missing.yaml")).LoadQuizzes(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Parse([]byte("   ")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty document, got %v", err)
	}
	if _, err := Parse([]byte("just a string")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for scalar document, got %v", err)
	}
	if _, err := Parse([]byte("quizzes: [")); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}
