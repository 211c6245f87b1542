package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-subgraphs/internal/app"
	"quiz-subgraphs/internal/config"
	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/infra/file"
	"quiz-subgraphs/internal/infra/postgres"
	redisstore "quiz-subgraphs/internal/infra/redis"
	"quiz-subgraphs/internal/logger"
)

type catalogSaver interface {
	SaveQuizzes(ctx context.Context, quizzes []domain.Quiz) error
}

// NewSeedCmd copies a catalog file into Postgres or Redis.
func NewSeedCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML/JSON quiz catalog into Postgres or Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cmd.OutOrStdout(), cfg.Log.Level)
			if err != nil {
				return err
			}
			if to == "" {
				to = cfg.Catalog.Source
			}
			return runSeed(cmd.Context(), cfg, log, from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "catalog file to read")
	cmd.Flags().StringVar(&to, "to", "", "target store: postgres or redis (defaults to catalog.source)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, log logger.Logger, from, to string) error {
	catalog, err := app.LoadCatalog(ctx, file.NewCatalogLoader(from))
	if err != nil {
		return err
	}

	var saver catalogSaver
	switch to {
	case config.SourcePostgres:
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		saver = postgres.NewSeeder(db)
	case config.SourceRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis addr not configured")
		}
		client := newRedisClient(cfg)
		defer client.Close()
		saver = redisstore.NewCatalogStore(client)
	default:
		return fmt.Errorf("cannot seed catalog source %q", to)
	}

	if err := saver.SaveQuizzes(ctx, catalog.All()); err != nil {
		return err
	}
	log.Info(ctx, "catalog seeded",
		logger.String("target", to),
		logger.Int("quizzes", catalog.Len()),
	)
	return nil
}
