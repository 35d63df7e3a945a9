package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/sharpline/internal/config"
)

// SetupTestDB connects to the test database and applies the schema. The
// connection parameters come from SHARPLINE_TEST_DB_* environment variables,
// falling back to the local development defaults.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:               envOr("SHARPLINE_TEST_DB_HOST", "localhost"),
		Port:               5432,
		Name:               envOr("SHARPLINE_TEST_DB_NAME", "sharpline_test"),
		User:               envOr("SHARPLINE_TEST_DB_USER", "sharpline"),
		Password:           envOr("SHARPLINE_TEST_DB_PASSWORD", "sharpline"),
		SSLMode:            "disable",
		MaxConnections:     5,
		MaxIdleConnections: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.ApplySchema(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	return db
}

// TeardownTestDB truncates the tables and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.pool.Exec(ctx, "TRUNCATE opportunities, parlays"); err != nil {
		t.Logf("warning: failed to truncate test tables: %v", err)
	}
	db.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
