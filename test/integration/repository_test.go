//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

// TestRepositoryIntegration exercises the repositories against a real
// PostgreSQL instance. Requires a reachable test database; see
// database.SetupTestDB for the connection environment variables.
func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	runDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	makeOpp := func(subject string, confidence float64) *models.Opportunity {
		return &models.Opportunity{
			ID:                 models.NewOpportunityID(runDate, "basketball_nba", subject, "points", 24.5, models.LineOver),
			Sport:              "basketball_nba",
			Kind:               models.OpportunityKindProp,
			Subject:            subject,
			Market:             "points",
			Line:               24.5,
			Direction:          models.LineOver,
			Price:              1.30,
			ImpliedProbability: 1 / 1.30,
			Confidence:         confidence,
			EventTime:          runDate.Add(19 * time.Hour),
			RunDate:            runDate,
		}
	}

	t.Run("OpportunityRepository", func(t *testing.T) {
		opportunities := []*models.Opportunity{
			makeOpp("Player A points", 0.85),
			makeOpp("Player B points", 0.70),
		}

		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return repos.Opportunity.CreateBatchTx(ctx, tx, opportunities)
		})
		require.NoError(t, err)

		// Re-running the same batch is an idempotent upsert.
		err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return repos.Opportunity.CreateBatchTx(ctx, tx, opportunities)
		})
		require.NoError(t, err)

		got, err := repos.Opportunity.GetByRunDate(ctx, runDate, "", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Player A points", got[0].Subject) // confidence DESC

		filtered, err := repos.Opportunity.GetByRunDate(ctx, runDate, "", 0.80)
		require.NoError(t, err)
		assert.Len(t, filtered, 1)

		byID, err := repos.Opportunity.GetByID(ctx, opportunities[0].ID)
		require.NoError(t, err)
		assert.Equal(t, opportunities[0].Subject, byID.Subject)

		_, err = repos.Opportunity.GetByID(ctx, models.NewOpportunityID(runDate, "x", "y", "z", 0, models.LineOver))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ParlayRepository", func(t *testing.T) {
		legs := []models.ParlayLeg{
			{OpportunityID: makeOpp("Player A points", 0.85).ID, Sport: "basketball_nba",
				Subject: "Player A points", Market: "points", Line: 24.5,
				Direction: models.LineOver, Price: 1.30, Confidence: 0.85, Result: models.LegResultPending},
			{OpportunityID: makeOpp("Player B points", 0.70).ID, Sport: "basketball_nba",
				Subject: "Player B points", Market: "points", Line: 24.5,
				Direction: models.LineOver, Price: 1.30, Confidence: 0.70, Result: models.LegResultPending},
		}
		parlay := &models.Parlay{
			ID:                  models.NewParlayID(runDate, legs),
			RunDate:             runDate,
			Legs:                legs,
			CombinedPrice:       1.69,
			CombinedProbability: 0.595,
			ExpectedValue:       0.595*1.69 - 1,
			StakeFraction:       0.02,
			Status:              models.ParlayStatusProposed,
		}

		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return repos.Parlay.CreateBatchTx(ctx, tx, []*models.Parlay{parlay})
		})
		require.NoError(t, err)

		proposed, err := repos.Parlay.GetProposed(ctx, runDate.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, proposed, 1)

		// Settle it.
		now := time.Now().UTC()
		parlay.Legs[0].Result = models.LegResultWon
		parlay.Legs[1].Result = models.LegResultWon
		parlay.Status = models.ParlayStatusSettledWon
		parlay.SettledAt = &now
		require.NoError(t, err)
		require.NoError(t, repos.Parlay.UpdateSettlement(ctx, parlay))

		// Settlement is terminal: a second update does not match.
		err = repos.Parlay.UpdateSettlement(ctx, parlay)
		assert.ErrorIs(t, err, models.ErrNotFound)

		// The upsert guard refuses to reopen a settled parlay.
		err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return repos.Parlay.CreateBatchTx(ctx, tx, []*models.Parlay{parlay})
		})
		require.NoError(t, err)

		settled, err := repos.Parlay.GetSettled(ctx, 10)
		require.NoError(t, err)
		require.Len(t, settled, 1)
		assert.Equal(t, models.ParlayStatusSettledWon, settled[0].Status)
	})

	t.Run("RunLock", func(t *testing.T) {
		lock, acquired, err := db.TryAcquireRunLock(ctx, "update", runDate)
		require.NoError(t, err)
		require.True(t, acquired)

		_, again, err := db.TryAcquireRunLock(ctx, "update", runDate)
		require.NoError(t, err)
		assert.False(t, again)

		// A different scope is a different lock.
		other, acquired, err := db.TryAcquireRunLock(ctx, "settlement", runDate)
		require.NoError(t, err)
		require.True(t, acquired)
		require.NoError(t, other.Release(ctx))

		require.NoError(t, lock.Release(ctx))

		relock, acquired, err := db.TryAcquireRunLock(ctx, "update", runDate)
		require.NoError(t, err)
		assert.True(t, acquired)
		require.NoError(t, relock.Release(ctx))
	})
}
