package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Transports classify failures with errors.Is against these.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

var (
	// ErrQuizNotFound is returned for quiz ids missing from the catalog.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrPlayerNotFound is returned for unknown player ids.
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)
	// ErrNoCurrentQuestion is returned when answering before the first advance.
	ErrNoCurrentQuestion = fmt.Errorf("%w: no current question", ErrInvalidState)
	// ErrMissingPlayer is returned when a mutation arrives without caller identity.
	ErrMissingPlayer = fmt.Errorf("%w: cannot find the player header", ErrUnauthenticated)
	// ErrNameTaken is returned when a user name is already registered in a quiz.
	ErrNameTaken = fmt.Errorf("%w: user name already taken", ErrConflict)
	// ErrEmptyName is returned when a player registers without a user name.
	ErrEmptyName = fmt.Errorf("%w: user name is required", ErrInvalidInput)
)
