package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the process-level configuration, read from the environment once
// at startup. Queue behavior settings (max_retries, backoff_base) live in
// the durable config table instead, so they survive restarts and are shared
// by every process pointed at the same database.
type Config struct {
	DBPath       string        `env:"QUEUECTL_DB" envDefault:"queue.db"`
	LogDir       string        `env:"QUEUECTL_LOG_DIR" envDefault:"logs"`
	PollInterval time.Duration `env:"QUEUECTL_POLL_INTERVAL" envDefault:"1s"`
	Shell        string        `env:"QUEUECTL_SHELL" envDefault:"sh"`
	BusyTimeout  time.Duration `env:"QUEUECTL_BUSY_TIMEOUT" envDefault:"250ms"`
	ListenAddr   string        `env:"QUEUECTL_LISTEN_ADDR" envDefault:":8080"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() *Config {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		log.Fatal().Err(err).Msg("failed to parse environment")
	}
	return &c
}
