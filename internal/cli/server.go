package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-subgraphs/internal/app"
	"quiz-subgraphs/internal/config"
	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/infra/file"
	"quiz-subgraphs/internal/infra/memory"
	"quiz-subgraphs/internal/infra/playerapi"
	"quiz-subgraphs/internal/infra/postgres"
	redisstore "quiz-subgraphs/internal/infra/redis"
	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/metrics"
	transport "quiz-subgraphs/internal/transport/http"
)

// Services selectable with start --service.
const (
	serviceAll    = "all"
	serviceQuiz   = "quiz"
	servicePlayer = "player"
)

// NewStartCmd builds the CLI subcommand to start the servers.
func NewStartCmd(opts *rootOptions) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz and player services",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch service {
			case serviceAll, serviceQuiz, servicePlayer:
			default:
				return fmt.Errorf("unknown service %q", service)
			}
			return runServer(cmd.Context(), opts, service)
		},
	}
	cmd.Flags().StringVar(&service, "service", serviceAll, "services to run: all, quiz or player")
	return cmd
}

func runServer(ctx context.Context, opts *rootOptions, service string) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port != "" {
		cfg.Server.QuizPort = opts.port
	}
	if opts.playerPort != "" {
		cfg.Server.PlayerPort = opts.playerPort
	}

	log, err := logger.New(os.Stdout, cfg.Log.Level)
	if err != nil {
		return err
	}
	recorder := metrics.New()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}

	var players *app.PlayerService
	if service != serviceQuiz {
		players = app.NewPlayerService(
			app.WithPlayerLogger(log.Named("players")),
			app.WithPlayerMetrics(recorder),
			app.WithPlayerBuffer(cfg.Bus.Buffer),
		)
	}

	if service != servicePlayer {
		loader, closeLoader, err := catalogLoader(ctx, cfg, redisClient, log)
		if err != nil {
			return err
		}
		defer closeLoader()
		catalog, err := app.LoadCatalog(ctx, loader)
		if err != nil {
			return err
		}
		log.Info(ctx, "catalog loaded",
			logger.String("source", cfg.Catalog.Source),
			logger.Int("quizzes", catalog.Len()),
		)

		engineOpts := []app.EngineOption{
			app.WithLogger(log.Named("engine")),
			app.WithMetrics(recorder),
			app.WithSubscriberBuffer(cfg.Bus.Buffer),
		}
		switch {
		case players != nil:
			engineOpts = append(engineOpts, app.WithPlayerDirectory(players))
		case cfg.Players.URL != "":
			client := playerapi.NewClient(cfg.Players.URL, 5*time.Second)
			cache := memory.NewPlayerCache(client, config.TTLDuration(cfg.Players.TTL, time.Minute))
			engineOpts = append(engineOpts, app.WithPlayerDirectory(cache))
		}
		engine := app.NewQuizEngine(app.NewState(catalog), engineOpts...)

		if cfg.Redis.Mirror && redisClient != nil {
			mirror := redisstore.NewLeaderboardMirror(redisClient, engine,
				config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), log.Named("mirror"))
			ids := catalog.IDs()
			g.Go(func() error { return mirror.Run(ctx, ids) })
		}

		handler := transport.NewQuizHandler(engine, log.Named("quiz-http"))
		serve(ctx, g, log, serviceQuiz, cfg.Server.QuizPort, transport.NewQuizRouter(handler, recorder))
	}
	if players != nil {
		handler := transport.NewPlayerHandler(players, log.Named("player-http"))
		serve(ctx, g, log, servicePlayer, cfg.Server.PlayerPort, transport.NewPlayerRouter(handler, recorder))
	}

	err = g.Wait()
	log.Info(context.Background(), "servers stopped")
	return err
}

// serve runs an HTTP server in g until ctx is done, then shuts it down.
func serve(ctx context.Context, g *errgroup.Group, log logger.Logger, name, port string, h http.Handler) {
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		log.Info(ctx, "starting service", logger.String("service", name), logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info(context.Background(), "shutting down service", logger.String("service", name))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

// catalogLoader picks the configured quiz source. The returned func releases
// its connections.
func catalogLoader(ctx context.Context, cfg config.Config, redisClient *redis.Client, log logger.Logger) (app.QuizLoader, func(), error) {
	noop := func() {}
	switch cfg.Catalog.Source {
	case config.SourceFile:
		return file.NewCatalogLoader(cfg.Catalog.Path), noop, nil
	case config.SourcePostgres:
		if err := runMigrations(ctx, cfg, log); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewQuizLoader(pool), pool.Close, nil
	case config.SourceRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis addr not configured")
		}
		return redisstore.NewCatalogStore(redisClient), noop, nil
	default:
		return memory.NewStaticQuizLoader(sampleQuizzes()...), noop, nil
	}
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// sampleQuizzes is the demo catalog served by the static source.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:    "0",
			Title: "Subscription quiz",
			Questions: []domain.Question{
				{
					ID:    "0",
					Title: "How many protocols are currently supported by the router for subscriptions?",
					Choices: []domain.Choice{
						{ID: "0", Text: "1"},
						{ID: "1", Text: "2"},
						{ID: "2", Text: "3"},
						{ID: "3", Text: "4"},
					},
					CorrectChoiceID: "1",
				},
				{
					ID:    "1",
					Title: "Which protocol connects the client and the router?",
					Choices: []domain.Choice{
						{ID: "0", Text: "HTTP multipart connection"},
						{ID: "1", Text: "Server-sent events (SSE)"},
						{ID: "2", Text: "WebSocket protocol"},
					},
					CorrectChoiceID: "0",
				},
			},
		},
	}
}
