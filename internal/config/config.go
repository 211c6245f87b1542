package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	SourceStatic   = "static"
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

type Config struct {
	Server struct {
		QuizPort   string `yaml:"quiz_port"`
		PlayerPort string `yaml:"player_port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Catalog struct {
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
	} `yaml:"catalog"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Mirror   bool   `yaml:"mirror"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Players struct {
		URL string `yaml:"url"`
		TTL string `yaml:"ttl"`
	} `yaml:"players"`
	Bus struct {
		Buffer int `yaml:"buffer"`
	} `yaml:"bus"`
}

// Default is the configuration used when no file is present: both services
// on their usual ports serving the built-in demo catalog.
func Default() Config {
	var cfg Config
	cfg.Server.QuizPort = "4001"
	cfg.Server.PlayerPort = "4002"
	cfg.Log.Level = "info"
	cfg.Catalog.Source = SourceStatic
	cfg.Redis.TTL = "10m"
	cfg.Players.TTL = "1m"
	cfg.Bus.Buffer = 16
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Catalog.Source {
	case SourceStatic:
	case SourceFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file source")
		}
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres.url is required for the postgres source")
		}
	case SourceRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis source")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Redis.Mirror && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis.mirror is on")
	}
	if c.Bus.Buffer < 0 {
		return fmt.Errorf("bus.buffer must not be negative")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
