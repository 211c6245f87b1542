package app

import (
	"context"
	"strings"
	"sync"

	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/metrics"
	"quiz-subgraphs/internal/pubsub"

	"github.com/google/uuid"
)

// PlayersTopic is the bus topic carrying the player list of a quiz.
func PlayersTopic(quizID string) string { return "players:" + quizID }

// PlayerService registers players per quiz and streams the player lists.
type PlayerService struct {
	mu      sync.RWMutex
	players map[string]domain.Player
	byQuiz  map[string][]string

	bus     *pubsub.Bus[[]domain.Player]
	newID   func() string
	log     logger.Logger
	metrics *metrics.Recorder
}

// PlayerOption configures a PlayerService.
type PlayerOption func(*playerSettings)

type playerSettings struct {
	log     logger.Logger
	metrics *metrics.Recorder
	buffer  int
	newID   func() string
}

func WithPlayerLogger(l logger.Logger) PlayerOption {
	return func(s *playerSettings) {
		if l != nil {
			s.log = l
		}
	}
}

func WithPlayerMetrics(m *metrics.Recorder) PlayerOption {
	return func(s *playerSettings) { s.metrics = m }
}

func WithPlayerBuffer(n int) PlayerOption {
	return func(s *playerSettings) { s.buffer = n }
}

// WithIDGenerator replaces the uuid generator, for deterministic tests.
func WithIDGenerator(fn func() string) PlayerOption {
	return func(s *playerSettings) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewPlayerService(opts ...PlayerOption) *PlayerService {
	s := playerSettings{
		log:    logger.Nop(),
		buffer: pubsub.DefaultBuffer,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&s)
	}

	busOpts := []pubsub.Option{pubsub.WithBuffer(s.buffer)}
	if s.metrics != nil {
		busOpts = append(busOpts, pubsub.WithObserver(s.metrics))
	}
	return &PlayerService{
		players: make(map[string]domain.Player),
		byQuiz:  make(map[string][]string),
		bus:     pubsub.New[[]domain.Player]("players", busOpts...),
		newID:   s.newID,
		log:     s.log,
		metrics: s.metrics,
	}
}

// CreatePlayer registers userName in quizID and publishes the quiz's updated
// player list. User names are unique within a quiz.
func (s *PlayerService) CreatePlayer(ctx context.Context, userName, quizID string) (domain.Player, error) {
	name := strings.TrimSpace(userName)
	if name == "" {
		return domain.Player{}, domain.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byQuiz[quizID] {
		if strings.EqualFold(s.players[id].Name, name) {
			return domain.Player{}, domain.ErrNameTaken
		}
	}

	player := domain.Player{ID: s.newID(), Name: name, QuizID: quizID}
	s.players[player.ID] = player
	s.byQuiz[quizID] = append(s.byQuiz[quizID], player.ID)
	s.metrics.PlayerCreated()

	s.bus.Publish(PlayersTopic(quizID), s.playersLocked(quizID))
	s.log.Info(ctx, "player created",
		logger.String("player_id", player.ID),
		logger.String("quiz_id", quizID),
	)
	return player, nil
}

// Player returns one player or ErrPlayerNotFound.
func (s *PlayerService) Player(_ context.Context, playerID string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return p, nil
}

// PlayersForQuiz lists the players of a quiz in registration order.
func (s *PlayerService) PlayersForQuiz(_ context.Context, quizID string) []domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playersLocked(quizID)
}

// SubscribePlayers streams the full player list of a quiz after every
// registration.
func (s *PlayerService) SubscribePlayers(ctx context.Context, quizID string) *pubsub.Subscription[[]domain.Player] {
	return s.bus.Subscribe(ctx, PlayersTopic(quizID))
}

// ResolvePlayer resolves a player entity reference; both id and quiz must match.
func (s *PlayerService) ResolvePlayer(_ context.Context, ref domain.EntityRef) (domain.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[ref.ID]
	if !ok || p.QuizID != ref.QuizID {
		return domain.Player{}, false
	}
	return p, true
}

// PlayerExists implements PlayerDirectory.
func (s *PlayerService) PlayerExists(ctx context.Context, quizID, playerID string) (bool, error) {
	_, ok := s.ResolvePlayer(ctx, domain.EntityRef{ID: playerID, QuizID: quizID})
	return ok, nil
}

func (s *PlayerService) playersLocked(quizID string) []domain.Player {
	ids := s.byQuiz[quizID]
	out := make([]domain.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.players[id])
	}
	return out
}
