package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quiz-subgraphs/internal/config"
)

const defaultConfigPath = "config/config.yaml"

type rootOptions struct {
	port       string
	playerPort string
	configPath string
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	opts := &rootOptions{}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:          "quiz-subgraphs",
		Short:        "Live quiz and player services with WebSocket subscriptions",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.port, "port", os.Getenv("PORT"), "quiz service port (overrides server.quiz_port)")
	cmd.PersistentFlags().StringVar(&opts.playerPort, "player-port", os.Getenv("PLAYER_PORT"), "player service port (overrides server.player_port)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewSeedCmd(opts))
	return cmd
}

// loadConfig reads the config file. Only the default path may be absent, in
// which case the built-in defaults apply.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}
