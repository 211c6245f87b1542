package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/infra/record"
)

// CatalogStore keeps quiz content in Redis.
// Order is stored as:  RPUSH quiz:ids {quizID}...
// Content is stored as: SET quiz:{quizID} {record json}
type CatalogStore struct {
	client *redis.Client
}

func NewCatalogStore(client *redis.Client) *CatalogStore {
	return &CatalogStore{client: client}
}

// LoadQuizzes reads every quiz listed in quiz:ids, in list order.
func (s *CatalogStore) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	ids, err := s.client.LRange(ctx, idsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list quiz ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = quizKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get quizzes: %w", err)
	}

	quizzes := make([]domain.Quiz, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("quiz %s: missing content", ids[i])
		}
		q, err := record.Unmarshal([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("quiz %s: %w", ids[i], err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, nil
}

// SaveQuizzes replaces the stored catalog with quizzes in one transaction.
func (s *CatalogStore) SaveQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	if len(quizzes) == 0 {
		return errors.New("save quizzes: empty catalog")
	}
	payloads := make([][]byte, len(quizzes))
	for i, q := range quizzes {
		data, err := record.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal quiz %s: %w", q.ID, err)
		}
		payloads[i] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, idsKey)
		for i, q := range quizzes {
			pipe.Set(ctx, quizKey(q.ID), payloads[i], 0)
			pipe.RPush(ctx, idsKey, q.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save quizzes: %w", err)
	}
	return nil
}

const idsKey = "quiz:ids"

func quizKey(quizID string) string {
	return "quiz:" + quizID
}
