// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath    string     `env:"DB_PATH" envDefault:"data/geoparty.db"`
	PublicURL string     `env:"PUBLIC_URL"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	MaxPlayers int `env:"MAX_PLAYERS" envDefault:"50"`

	Redis   Redis   `envPrefix:"REDIS_"`
	Session Session `envPrefix:"SESSION_"`
	Store   Store   `envPrefix:"STORE_"`

	NATSURL      string `env:"NATS_URL"`
	OTELEndpoint string `env:"OTEL_ENDPOINT"`

	ProfileFlushInterval time.Duration `env:"PROFILE_FLUSH_INTERVAL" envDefault:"30s"`
	RoundRateLimit       int           `env:"ROUND_RATE_LIMIT" envDefault:"12"`
}

type Redis struct {
	URL        string `env:"URL" envDefault:"redis://localhost:6379/0"`
	MaxRetries int    `env:"MAX_RETRIES" envDefault:"3"`
}

type Session struct {
	KeyPrefix string        `env:"KEY_PREFIX" envDefault:"game:"`
	TTL       time.Duration `env:"TTL" envDefault:"24h"`
	Locking   bool          `env:"LOCKING" envDefault:"true"`
	LockTTL   time.Duration `env:"LOCK_TTL" envDefault:"2s"`
}

// Store bounds the shared key/value store.
type Store struct {
	MaxClients int `env:"MAX_CLIENTS" envDefault:"10"`
	MaxKeys    int `env:"MAX_KEYS" envDefault:"500"`
	TrimTo     int `env:"TRIM_TO" envDefault:"300"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Store.TrimTo > cfg.Store.MaxKeys {
		return nil, fmt.Errorf("STORE_TRIM_TO (%d) exceeds STORE_MAX_KEYS (%d)", cfg.Store.TrimTo, cfg.Store.MaxKeys)
	}
	return &cfg, nil
}
