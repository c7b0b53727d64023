package migrations_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/playperu/geoparty/internal/database"
	"github.com/playperu/geoparty/internal/migrations"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := openDB(t)
	if err := migrations.Run(context.Background(), db.DB, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	want := []string{"users", "user_rounds", "matches", "match_players"}
	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openDB(t)
	logger := slog.New(slog.DiscardHandler)

	if err := migrations.Run(context.Background(), db.DB, logger); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(context.Background(), db.DB, logger); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}

func TestUserDefaults(t *testing.T) {
	db := openDB(t)
	if err := migrations.Run(context.Background(), db.DB, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO users (secret, username) VALUES ('s1', 'Alice')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var elo, xp int
	if err := db.QueryRow(`SELECT elo, total_xp FROM users WHERE username = 'alice'`).Scan(&elo, &xp); err != nil {
		t.Fatalf("select: %v", err)
	}
	if elo != 1000 || xp != 0 {
		t.Errorf("elo=%d xp=%d, want 1000 and 0", elo, xp)
	}

	if _, err := db.Exec(`INSERT INTO users (secret, username) VALUES ('s2', 'ALICE')`); err == nil {
		t.Error("expected case-insensitive username conflict")
	}
}
