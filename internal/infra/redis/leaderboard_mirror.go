package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/pubsub"
)

// LeaderboardSource streams leaderboard snapshots of a quiz.
type LeaderboardSource interface {
	SubscribeLeaderboard(ctx context.Context, quizID string) (*pubsub.Subscription[domain.Leaderboard], error)
}

// LeaderboardMirror copies every published leaderboard into a sorted set
// leaderboard:{quizID} so external readers can rank players with ZREVRANGE.
// Writes are best effort.
type LeaderboardMirror struct {
	client *redis.Client
	source LeaderboardSource
	ttl    time.Duration
	log    logger.Logger
}

func NewLeaderboardMirror(client *redis.Client, source LeaderboardSource, ttl time.Duration, log logger.Logger) *LeaderboardMirror {
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardMirror{client: client, source: source, ttl: ttl, log: log}
}

// Run mirrors the given quizzes until ctx is done.
func (m *LeaderboardMirror) Run(ctx context.Context, quizIDs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range quizIDs {
		sub, err := m.source.SubscribeLeaderboard(ctx, id)
		if err != nil {
			return err
		}
		g.Go(func() error {
			for board := range sub.C() {
				if err := m.Write(ctx, board); err != nil {
					m.log.Warn(ctx, "mirror leaderboard",
						logger.String("quiz_id", board.Quiz.ID),
						logger.Error(err),
					)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Write replaces the mirrored sorted set of one quiz with board.
func (m *LeaderboardMirror) Write(ctx context.Context, board domain.Leaderboard) error {
	key := LeaderboardKey(board.Quiz.ID)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(board.Entries) == 0 {
			return nil
		}
		members := make([]redis.Z, len(board.Entries))
		for i, e := range board.Entries {
			members[i] = redis.Z{Score: float64(e.Points), Member: e.PlayerID}
		}
		pipe.ZAdd(ctx, key, members...)
		if m.ttl > 0 {
			pipe.Expire(ctx, key, m.ttl)
		}
		return nil
	})
	return err
}

// LeaderboardKey is the sorted set holding a quiz's mirrored leaderboard.
func LeaderboardKey(quizID string) string {
	return "leaderboard:" + quizID
}
