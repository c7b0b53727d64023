package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("http/log = %q/%v", cfg.HTTPAddr, cfg.LogLevel)
	}
	if cfg.Session.KeyPrefix != "game:" || cfg.Session.TTL != 24*time.Hour || !cfg.Session.Locking {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Store != (Store{MaxClients: 10, MaxKeys: 500, TrimTo: 300}) {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.MaxPlayers != 50 || cfg.RoundRateLimit != 12 {
		t.Errorf("maxPlayers=%d roundRateLimit=%d", cfg.MaxPlayers, cfg.RoundRateLimit)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_LOCKING", "false")
	t.Setenv("SESSION_LOCK_TTL", "500ms")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.Locking || cfg.Session.LockTTL != 500*time.Millisecond {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Redis.URL != "redis://cache:6379/2" {
		t.Errorf("redis url = %q", cfg.Redis.URL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
}

func TestLoadRejectsTrimAboveLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_MAX_KEYS", "100")
	t.Setenv("STORE_TRIM_TO", "200")

	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_TTL", "forever")

	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
