package app

import (
	"context"
	"fmt"

	"quiz-subgraphs/internal/domain"
)

// QuizLoader fetches quiz content from a backing source (file, Postgres, Redis).
type QuizLoader interface {
	LoadQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// Catalog holds immutable quiz definitions keyed by id, in load order.
type Catalog struct {
	order   []string
	quizzes map[string]domain.Quiz
}

// LoadCatalog builds the catalog once from loader.
func LoadCatalog(ctx context.Context, loader QuizLoader) (*Catalog, error) {
	quizzes, err := loader.LoadQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewCatalog(quizzes)
}

// NewCatalog validates ids and stores a copy of every quiz in the not started
// state. Questions whose correct choice is missing are kept as is; scoring
// falls back to their first choice.
func NewCatalog(quizzes []domain.Quiz) (*Catalog, error) {
	c := &Catalog{
		order:   make([]string, 0, len(quizzes)),
		quizzes: make(map[string]domain.Quiz, len(quizzes)),
	}
	for _, q := range quizzes {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: quiz without id", domain.ErrInvalidInput)
		}
		if _, dup := c.quizzes[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate quiz id %q", domain.ErrInvalidInput, q.ID)
		}
		q.Questions = append([]domain.Question(nil), q.Questions...)
		q.CurrentQuestionIndex = domain.NotStarted
		c.quizzes[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	return c, nil
}

// Get returns the definition of quizID or ErrQuizNotFound.
func (c *Catalog) Get(quizID string) (domain.Quiz, error) {
	q, ok := c.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

// All returns every quiz in load order.
func (c *Catalog) All() []domain.Quiz {
	out := make([]domain.Quiz, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.quizzes[id])
	}
	return out
}

// IDs returns quiz ids in load order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Len reports the number of quizzes.
func (c *Catalog) Len() int {
	return len(c.order)
}
