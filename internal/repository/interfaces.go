// Package repository provides data access layers for prediction entities.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sharpline/internal/models"
)

// OpportunityRepository defines data access for scored opportunities
type OpportunityRepository interface {
	// CreateBatchTx upserts a cycle's opportunities inside the caller's
	// transaction so the whole output set commits or rolls back together.
	CreateBatchTx(ctx context.Context, tx pgx.Tx, opportunities []*models.Opportunity) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)

	// GetByRunDate retrieves opportunities for a run date, optionally filtered
	// by sport and minimum confidence, ordered by confidence descending.
	GetByRunDate(ctx context.Context, runDate time.Time, sport string, minConfidence float64) ([]*models.Opportunity, error)

	// GetByDateRange retrieves opportunities across run dates.
	GetByDateRange(ctx context.Context, start, end time.Time, sport string, minConfidence float64) ([]*models.Opportunity, error)
}

// ParlayRepository defines data access for parlays
type ParlayRepository interface {
	CreateBatchTx(ctx context.Context, tx pgx.Tx, parlays []*models.Parlay) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Parlay, error)

	// GetProposed retrieves unsettled parlays with a run date at or before asOf.
	GetProposed(ctx context.Context, asOf time.Time) ([]*models.Parlay, error)

	// GetByRunDate retrieves parlays for a run date, optionally pending-only,
	// ordered by combined probability descending.
	GetByRunDate(ctx context.Context, runDate time.Time, pendingOnly bool) ([]*models.Parlay, error)

	// GetSettled retrieves settled parlays most recent first, up to limit.
	GetSettled(ctx context.Context, limit int) ([]*models.Parlay, error)

	// UpdateSettlement persists a settlement outcome: status, leg results and
	// settled_at. Leg composition is never altered.
	UpdateSettlement(ctx context.Context, parlay *models.Parlay) error
}

// Repositories holds all repository implementations
type Repositories struct {
	Opportunity OpportunityRepository
	Parlay      ParlayRepository
}
