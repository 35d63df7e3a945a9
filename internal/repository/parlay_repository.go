package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresParlayRepository implements ParlayRepository for PostgreSQL
type PostgresParlayRepository struct {
	db *database.DB
}

// NewPostgresParlayRepository creates a new parlay repository
func NewPostgresParlayRepository(db *database.DB) ParlayRepository {
	return &PostgresParlayRepository{db: db}
}

const parlayColumns = `id, run_date, legs, combined_price, combined_probability,
       expected_value, stake_fraction, negative_ev, status, created_at, settled_at`

// CreateBatchTx upserts a cycle's parlays inside the given transaction.
// Settled parlays are never overwritten: the upsert only refreshes rows that
// are still proposed, keeping settlement terminal.
func (r *PostgresParlayRepository) CreateBatchTx(ctx context.Context, tx pgx.Tx, parlays []*models.Parlay) error {
	query := `
		INSERT INTO parlays (id, run_date, legs, combined_price, combined_probability,
		                     expected_value, stake_fraction, negative_ev, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			legs = EXCLUDED.legs,
			combined_price = EXCLUDED.combined_price,
			combined_probability = EXCLUDED.combined_probability,
			expected_value = EXCLUDED.expected_value,
			stake_fraction = EXCLUDED.stake_fraction,
			negative_ev = EXCLUDED.negative_ev
		WHERE parlays.status = 'proposed'
	`

	for _, p := range parlays {
		legs, err := json.Marshal(p.Legs)
		if err != nil {
			return fmt.Errorf("failed to marshal parlay legs: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			p.ID, p.RunDate, legs, p.CombinedPrice, p.CombinedProbability,
			p.ExpectedValue, p.StakeFraction, p.NegativeEV, p.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to create parlay %s: %w", p.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a parlay by ID
func (r *PostgresParlayRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Parlay, error) {
	query := `SELECT ` + parlayColumns + ` FROM parlays WHERE id = $1`

	row := r.db.GetPool().QueryRow(ctx, query, id)
	p, err := scanParlayRow(row)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parlay: %w", err)
	}

	return p, nil
}

// GetProposed retrieves unsettled parlays with a run date at or before asOf
func (r *PostgresParlayRepository) GetProposed(ctx context.Context, asOf time.Time) ([]*models.Parlay, error) {
	query := `
		SELECT ` + parlayColumns + `
		FROM parlays
		WHERE status = 'proposed' AND run_date <= $1
		ORDER BY run_date ASC, id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposed parlays: %w", err)
	}
	defer rows.Close()

	return scanParlays(rows)
}

// GetByRunDate retrieves parlays for a run date ordered by combined probability descending
func (r *PostgresParlayRepository) GetByRunDate(ctx context.Context, runDate time.Time, pendingOnly bool) ([]*models.Parlay, error) {
	query := `
		SELECT ` + parlayColumns + `
		FROM parlays
		WHERE run_date = $1 AND ($2 = FALSE OR status = 'proposed')
		ORDER BY combined_probability DESC, id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, runDate, pendingOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query parlays by run date: %w", err)
	}
	defer rows.Close()

	return scanParlays(rows)
}

// GetSettled retrieves settled parlays most recent first
func (r *PostgresParlayRepository) GetSettled(ctx context.Context, limit int) ([]*models.Parlay, error) {
	query := `
		SELECT ` + parlayColumns + `
		FROM parlays
		WHERE status != 'proposed'
		ORDER BY settled_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled parlays: %w", err)
	}
	defer rows.Close()

	return scanParlays(rows)
}

// UpdateSettlement persists a settlement outcome. The status guard keeps
// settlement monotonic: a parlay that already reached a terminal status is
// never re-opened or altered.
func (r *PostgresParlayRepository) UpdateSettlement(ctx context.Context, parlay *models.Parlay) error {
	legs, err := json.Marshal(parlay.Legs)
	if err != nil {
		return fmt.Errorf("failed to marshal parlay legs: %w", err)
	}

	query := `
		UPDATE parlays SET legs = $2, status = $3, settled_at = $4
		WHERE id = $1 AND status = 'proposed'
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query, parlay.ID, legs, parlay.Status, parlay.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to update parlay settlement: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func scanParlayRow(row pgx.Row) (*models.Parlay, error) {
	p := &models.Parlay{}
	var legs []byte
	err := row.Scan(
		&p.ID, &p.RunDate, &legs, &p.CombinedPrice, &p.CombinedProbability,
		&p.ExpectedValue, &p.StakeFraction, &p.NegativeEV, &p.Status, &p.CreatedAt, &p.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(legs, &p.Legs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parlay legs: %w", err)
	}

	return p, nil
}

func scanParlays(rows pgx.Rows) ([]*models.Parlay, error) {
	var parlays []*models.Parlay
	for rows.Next() {
		p, err := scanParlayRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parlay: %w", err)
		}
		parlays = append(parlays, p)
	}

	return parlays, rows.Err()
}
