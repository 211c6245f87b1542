package app

import (
	"context"
	"errors"
	"fmt"

	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/metrics"
	"quiz-subgraphs/internal/pubsub"
)

// PlayerDirectory answers whether a player is registered for a quiz. It is
// served by the player service, locally or over the network.
type PlayerDirectory interface {
	PlayerExists(ctx context.Context, quizID, playerID string) (bool, error)
}

// QuestionTopic is the bus topic carrying new questions of a quiz.
func QuestionTopic(quizID string) string { return "question:" + quizID }

// LeaderboardTopic is the bus topic carrying leaderboard snapshots of a quiz.
func LeaderboardTopic(quizID string) string { return "leaderboard:" + quizID }

// QuizEngine implements the quiz use cases: answering, advancing questions,
// reading quizzes and leaderboards, and live subscriptions.
type QuizEngine struct {
	state        *State
	questions    *pubsub.Bus[domain.QuestionEvent]
	leaderboards *pubsub.Bus[domain.Leaderboard]
	players      PlayerDirectory
	log          logger.Logger
	metrics      *metrics.Recorder
	buffer       int
}

// EngineOption configures a QuizEngine.
type EngineOption func(*QuizEngine)

// WithPlayerDirectory makes player entity resolution check registration.
func WithPlayerDirectory(d PlayerDirectory) EngineOption {
	return func(e *QuizEngine) { e.players = d }
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *QuizEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records engine and bus activity.
func WithMetrics(m *metrics.Recorder) EngineOption {
	return func(e *QuizEngine) { e.metrics = m }
}

// WithSubscriberBuffer sets the per-subscriber queue length of both streams.
func WithSubscriberBuffer(n int) EngineOption {
	return func(e *QuizEngine) { e.buffer = n }
}

func NewQuizEngine(state *State, opts ...EngineOption) *QuizEngine {
	e := &QuizEngine{
		state:  state,
		log:    logger.Nop(),
		buffer: pubsub.DefaultBuffer,
	}
	for _, opt := range opts {
		opt(e)
	}

	busOpts := []pubsub.Option{pubsub.WithBuffer(e.buffer)}
	if e.metrics != nil {
		busOpts = append(busOpts, pubsub.WithObserver(e.metrics))
	}
	e.questions = pubsub.New[domain.QuestionEvent]("question", busOpts...)
	e.leaderboards = pubsub.New[domain.Leaderboard]("leaderboard", busOpts...)
	return e
}

// Answer scores a choice for the caller against the quiz's live question and
// publishes the updated leaderboard. playerID is the out-of-band caller
// identity; it is required but not checked against the player registry.
func (e *QuizEngine) Answer(ctx context.Context, quizID, questionID, choiceID, playerID string) (domain.AnswerResult, error) {
	if playerID == "" {
		return domain.AnswerResult{}, domain.ErrMissingPlayer
	}
	g, err := e.state.game(quizID)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	result, err := g.submitAnswerLocked(playerID, questionID, choiceID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	e.metrics.AnswerRecorded(result.Success)
	e.leaderboards.Publish(LeaderboardTopic(quizID), g.leaderboardLocked())

	e.log.Debug(ctx, "answer scored",
		logger.String("quiz_id", quizID),
		logger.String("player_id", playerID),
		logger.String("question_id", questionID),
		logger.Bool("success", result.Success),
	)
	return result, nil
}

// NextQuestion advances the quiz and publishes the new question. Unknown quiz
// ids yield (nil, nil). A fresh game start also publishes the emptied
// leaderboard.
func (e *QuizEngine) NextQuestion(ctx context.Context, quizID string) (*domain.Question, error) {
	g, err := e.state.game(quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		e.log.Debug(ctx, "next question for unknown quiz", logger.String("quiz_id", quizID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	question, fresh := g.advanceLocked()
	e.metrics.QuestionAdvanced()
	if fresh {
		e.metrics.ScoresReset()
	}

	e.questions.Publish(QuestionTopic(quizID), domain.QuestionEvent{QuizID: quizID, Question: question})
	if fresh {
		e.leaderboards.Publish(LeaderboardTopic(quizID), g.leaderboardLocked())
	}

	e.log.Info(ctx, "question advanced",
		logger.String("quiz_id", quizID),
		logger.Int("index", g.current),
		logger.Bool("fresh_game", fresh),
	)
	return question, nil
}

// Quiz returns a snapshot of one quiz including its live question index.
func (e *QuizEngine) Quiz(_ context.Context, quizID string) (domain.Quiz, error) {
	g, err := e.state.game(quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked(), nil
}

// Quizzes returns snapshots of every quiz in catalog order.
func (e *QuizEngine) Quizzes(ctx context.Context) []domain.Quiz {
	ids := e.state.catalog.IDs()
	out := make([]domain.Quiz, 0, len(ids))
	for _, id := range ids {
		q, err := e.Quiz(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Leaderboard computes the current leaderboard of a quiz.
func (e *QuizEngine) Leaderboard(_ context.Context, quizID string) (domain.Leaderboard, error) {
	g, err := e.state.game(quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.leaderboardLocked(), nil
}

// SubscribeQuestions streams new questions of a quiz until ctx is done or the
// subscription is closed.
func (e *QuizEngine) SubscribeQuestions(ctx context.Context, quizID string) (*pubsub.Subscription[domain.QuestionEvent], error) {
	if _, err := e.state.game(quizID); err != nil {
		return nil, err
	}
	return e.questions.Subscribe(ctx, QuestionTopic(quizID)), nil
}

// SubscribeLeaderboard streams leaderboard snapshots of a quiz.
func (e *QuizEngine) SubscribeLeaderboard(ctx context.Context, quizID string) (*pubsub.Subscription[domain.Leaderboard], error) {
	if _, err := e.state.game(quizID); err != nil {
		return nil, err
	}
	return e.leaderboards.Subscribe(ctx, LeaderboardTopic(quizID)), nil
}

// ResolveQuiz resolves a quiz entity reference.
func (e *QuizEngine) ResolveQuiz(ctx context.Context, ref domain.EntityRef) (domain.Quiz, bool) {
	q, err := e.Quiz(ctx, ref.ID)
	if err != nil {
		return domain.Quiz{}, false
	}
	return q, true
}

// ResolvePlayer resolves a player entity reference to the player's points in
// the quiz. Players that have not answered yet have zero points.
func (e *QuizEngine) ResolvePlayer(ctx context.Context, ref domain.EntityRef) (domain.PlayerScore, bool, error) {
	g, err := e.state.game(ref.QuizID)
	if err != nil {
		return domain.PlayerScore{}, false, nil
	}
	if e.players != nil {
		ok, err := e.players.PlayerExists(ctx, ref.QuizID, ref.ID)
		if err != nil {
			return domain.PlayerScore{}, false, fmt.Errorf("player directory: %w", err)
		}
		if !ok {
			return domain.PlayerScore{}, false, nil
		}
	}

	g.mu.RLock()
	points, _ := g.scores.get(ref.ID)
	g.mu.RUnlock()
	return domain.PlayerScore{ID: ref.ID, QuizID: ref.QuizID, Points: points}, true, nil
}
