package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/infra/record"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID       string          `bun:"id,pk"`
	Position int             `bun:"position,notnull"`
	Data     json.RawMessage `bun:"data,type:jsonb,notnull"`
}

// OpenDB opens a bun handle on the Postgres DSN.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Seeder upserts catalog content into the quizzes table.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// SaveQuizzes upserts quizzes, keeping their order through the position
// column.
func (s *Seeder) SaveQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	rows := make([]quizRow, 0, len(quizzes))
	for i, q := range quizzes {
		data, err := record.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal quiz %s: %w", q.ID, err)
		}
		rows = append(rows, quizRow{ID: q.ID, Position: i, Data: data})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("position = EXCLUDED.position").
		Set("data = EXCLUDED.data").
		Set("updated_at = now()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seed quizzes: %w", err)
	}
	return nil
}
