package app

import (
	"sync"

	"quiz-subgraphs/internal/domain"
)

// State owns the mutable game state of every catalog quiz for the lifetime of
// the process. Construct one per process and inject it into the engine.
type State struct {
	catalog *Catalog
	games   map[string]*game
}

// game is the mutable state of one quiz. mu is the quiz's single mutual
// exclusion domain: mutations hold it exclusively, reads share it.
type game struct {
	mu      sync.RWMutex
	quiz    domain.Quiz
	current int
	scores  scoreTable
}

// NewState prepares a not started game for every quiz of the catalog. The
// catalog is immutable, so the set of games never changes afterwards.
func NewState(catalog *Catalog) *State {
	s := &State{
		catalog: catalog,
		games:   make(map[string]*game, catalog.Len()),
	}
	for _, q := range catalog.All() {
		s.games[q.ID] = &game{
			quiz:    q,
			current: domain.NotStarted,
			scores:  newScoreTable(),
		}
	}
	return s
}

// Catalog returns the quiz definitions backing the state.
func (s *State) Catalog() *Catalog {
	return s.catalog
}

func (s *State) game(quizID string) (*game, error) {
	g, ok := s.games[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return g, nil
}

// snapshotLocked returns the quiz definition with the live question index.
func (g *game) snapshotLocked() domain.Quiz {
	q := g.quiz
	q.CurrentQuestionIndex = g.current
	return q
}
