package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresOpportunityRepository implements OpportunityRepository for PostgreSQL
type PostgresOpportunityRepository struct {
	db *database.DB
}

// NewPostgresOpportunityRepository creates a new opportunity repository
func NewPostgresOpportunityRepository(db *database.DB) OpportunityRepository {
	return &PostgresOpportunityRepository{db: db}
}

const opportunityColumns = `id, sport, kind, subject, market, line, direction, price,
       implied_probability, confidence, signals, event_time, run_date, created_at`

// CreateBatchTx upserts a cycle's opportunities inside the given transaction.
// Opportunity IDs are deterministic per (run_date, subject, market, line), so
// re-running an unchanged cycle overwrites rows with identical values.
func (r *PostgresOpportunityRepository) CreateBatchTx(ctx context.Context, tx pgx.Tx, opportunities []*models.Opportunity) error {
	query := `
		INSERT INTO opportunities (id, sport, kind, subject, market, line, direction, price,
		                           implied_probability, confidence, signals, event_time, run_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			price = EXCLUDED.price,
			implied_probability = EXCLUDED.implied_probability,
			confidence = EXCLUDED.confidence,
			signals = EXCLUDED.signals,
			event_time = EXCLUDED.event_time
	`

	for _, o := range opportunities {
		_, err := tx.Exec(ctx, query,
			o.ID, o.Sport, o.Kind, o.Subject, o.Market, o.Line, o.Direction, o.Price,
			o.ImpliedProbability, o.Confidence, o.Signals, o.EventTime, o.RunDate,
		)
		if err != nil {
			return fmt.Errorf("failed to create opportunity %s: %w", o.ID, err)
		}
	}

	return nil
}

// GetByID retrieves an opportunity by ID
func (r *PostgresOpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = $1`

	o := &models.Opportunity{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Sport, &o.Kind, &o.Subject, &o.Market, &o.Line, &o.Direction, &o.Price,
		&o.ImpliedProbability, &o.Confidence, &o.Signals, &o.EventTime, &o.RunDate, &o.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	return o, nil
}

// GetByRunDate retrieves opportunities for a run date ordered by confidence descending
func (r *PostgresOpportunityRepository) GetByRunDate(ctx context.Context, runDate time.Time, sport string, minConfidence float64) ([]*models.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE run_date = $1 AND confidence >= $2 AND ($3 = '' OR sport = $3)
		ORDER BY confidence DESC, price ASC, subject ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, runDate, minConfidence, sport)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities by run date: %w", err)
	}
	defer rows.Close()

	return scanOpportunities(rows)
}

// GetByDateRange retrieves opportunities across run dates
func (r *PostgresOpportunityRepository) GetByDateRange(ctx context.Context, start, end time.Time, sport string, minConfidence float64) ([]*models.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE run_date >= $1 AND run_date <= $2 AND confidence >= $3 AND ($4 = '' OR sport = $4)
		ORDER BY run_date ASC, confidence DESC, price ASC, subject ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end, minConfidence, sport)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities by date range: %w", err)
	}
	defer rows.Close()

	return scanOpportunities(rows)
}

func scanOpportunities(rows pgx.Rows) ([]*models.Opportunity, error) {
	var opportunities []*models.Opportunity
	for rows.Next() {
		o := &models.Opportunity{}
		err := rows.Scan(
			&o.ID, &o.Sport, &o.Kind, &o.Subject, &o.Market, &o.Line, &o.Direction, &o.Price,
			&o.ImpliedProbability, &o.Confidence, &o.Signals, &o.EventTime, &o.RunDate, &o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}

	return opportunities, rows.Err()
}
