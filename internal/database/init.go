package database

import (
	"context"
	"fmt"

	"github.com/yourusername/sharpline/internal/config"
)

// schema holds the flat relational schema for predictions. Legs are stored
// as JSONB on the parlay row; settlement only updates status, legs and
// settled_at, never leg composition.
const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
	id UUID PRIMARY KEY,
	sport TEXT NOT NULL,
	kind TEXT NOT NULL,
	subject TEXT NOT NULL,
	market TEXT NOT NULL,
	line DOUBLE PRECISION NOT NULL,
	direction TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	implied_probability DOUBLE PRECISION NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	signals JSONB,
	event_time TIMESTAMPTZ,
	run_date DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_run_date ON opportunities (run_date, sport);
CREATE INDEX IF NOT EXISTS idx_opportunities_confidence ON opportunities (run_date, confidence DESC);

CREATE TABLE IF NOT EXISTS parlays (
	id UUID PRIMARY KEY,
	run_date DATE NOT NULL,
	legs JSONB NOT NULL,
	combined_price DOUBLE PRECISION NOT NULL,
	combined_probability DOUBLE PRECISION NOT NULL,
	expected_value DOUBLE PRECISION NOT NULL,
	stake_fraction DOUBLE PRECISION NOT NULL,
	negative_ev BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL DEFAULT 'proposed',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	settled_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_parlays_run_date ON parlays (run_date);
CREATE INDEX IF NOT EXISTS idx_parlays_status ON parlays (status);
`

// Initialize creates a database connection pool and ensures the schema
// exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.ApplySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// ApplySchema creates the tables and indexes if they do not exist
func (db *DB) ApplySchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
