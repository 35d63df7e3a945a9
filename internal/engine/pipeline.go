// Package engine implements the scoring and parlay composition pipeline:
// normalize raw provider records into scored opportunities, select a
// candidate pool, compose parlays and reconcile them against outcomes.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

// ParlayNotifier receives freshly composed parlays, typically to push them to
// stream subscribers. Notification happens after the cycle's transaction
// commits.
type ParlayNotifier interface {
	NotifyParlays(parlays []*models.Parlay)
}

// Pipeline orchestrates the update and settlement cycles
type Pipeline struct {
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
	sources    *datasource.Sources
	normalizer *Normalizer
	selector   *Selector
	composer   *Composer
	settler    *Settler
	notifier   ParlayNotifier
	runLog     *logger.RunLogger
	logger     *logrus.Logger
}

// NewPipeline wires the engine stages together
func NewPipeline(cfg *config.Config, db *database.DB, repos *repository.Repositories, sources *datasource.Sources, log *logrus.Logger) *Pipeline {
	runLog := logger.NewRunLogger(log)
	scorer := NewScorer(cfg.Scoring)

	return &Pipeline{
		cfg:        cfg,
		db:         db,
		repos:      repos,
		sources:    sources,
		normalizer: NewNormalizer(sources.Stats, scorer, cfg.Scoring, log),
		selector:   NewSelector(cfg.Selector, runLog),
		composer:   NewComposer(cfg.Parlay, runLog),
		settler:    NewSettler(),
		runLog:     runLog,
		logger:     log,
	}
}

// SetNotifier attaches a parlay notifier. Must be called before the pipeline
// starts running.
func (p *Pipeline) SetNotifier(n ParlayNotifier) {
	p.notifier = n
}

// RunUpdate executes one full update cycle for the given date: fetch, score,
// select, compose and persist, all under a per-date advisory lock so a
// scheduled run and a manual trigger cannot interleave. The cycle's output is
// written in a single transaction.
func (p *Pipeline) RunUpdate(ctx context.Context, runDate time.Time) error {
	runDate = truncateToDay(runDate)

	lock, acquired, err := p.db.TryAcquireRunLock(ctx, "update", runDate)
	if err != nil {
		return fmt.Errorf("failed to acquire update lock: %w", err)
	}
	if !acquired {
		return models.ErrRunInProgress
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			p.logger.WithError(releaseErr).Warn("Failed to release update lock")
		}
	}()

	start := time.Now()
	p.runLog.LogUpdateStart(runDate, p.cfg.DataSources.Sports)

	opportunities, err := p.scoreAll(ctx, runDate)
	if err != nil {
		metrics.RecordUpdateRun("error", time.Since(start).Seconds())
		return err
	}

	selected := p.selector.Select(opportunities)
	parlays := p.composer.Compose(selected, runDate)

	err = p.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := p.repos.Opportunity.CreateBatchTx(ctx, tx, opportunities); err != nil {
			return err
		}
		return p.repos.Parlay.CreateBatchTx(ctx, tx, parlays)
	})
	if err != nil {
		metrics.RecordUpdateRun("error", time.Since(start).Seconds())
		return fmt.Errorf("failed to persist update cycle: %w", err)
	}

	metrics.OpportunitiesSelectedTotal.Add(float64(len(selected)))
	metrics.ParlaysComposedTotal.Add(float64(len(parlays)))
	metrics.LastUpdateTimestamp.SetToCurrentTime()
	metrics.RecordUpdateRun("success", time.Since(start).Seconds())

	if p.notifier != nil && len(parlays) > 0 {
		p.notifier.NotifyParlays(parlays)
	}

	p.runLog.LogUpdateComplete(runDate, len(opportunities), len(selected), len(parlays), time.Since(start))
	return nil
}

// scoreAll fetches and scores records across all configured sports. A sport
// whose provider call fails is skipped with a logged error; the cycle fails
// outright only when every sport failed, since an empty cycle would silently
// wipe nothing but propose nothing either.
func (p *Pipeline) scoreAll(ctx context.Context, runDate time.Time) ([]*models.Opportunity, error) {
	var opportunities []*models.Opportunity
	failures := 0

	for _, sport := range p.cfg.DataSources.Sports {
		records, err := p.sources.Odds.FetchOpportunities(ctx, sport, runDate)
		if err != nil {
			failures++
			metrics.RecordDataSourceError(p.sources.Odds.Name())
			p.logger.WithError(err).WithField("sport", sport).Error("Failed to fetch opportunities")
			continue
		}

		for _, rec := range records {
			opp, err := p.normalizer.Normalize(ctx, rec, runDate)
			if err != nil {
				p.logger.WithError(err).WithFields(logrus.Fields{
					"sport":   sport,
					"subject": rec.Subject,
				}).Warn("Skipping record that failed normalization")
				continue
			}
			metrics.RecordOpportunityScored(opp.Sport, string(opp.Kind), opp.Confidence)
			opportunities = append(opportunities, opp)
		}
	}

	if failures > 0 && failures == len(p.cfg.DataSources.Sports) {
		return nil, fmt.Errorf("all sports failed to fetch: %w", models.ErrDataUnavailable)
	}

	return opportunities, nil
}

// RunSettlement reconciles all proposed parlays against realized outcomes.
// Parlays with undecided legs stay proposed and are retried on the next pass.
func (p *Pipeline) RunSettlement(ctx context.Context, now time.Time) error {
	lock, acquired, err := p.db.TryAcquireRunLock(ctx, "settlement", truncateToDay(now))
	if err != nil {
		return fmt.Errorf("failed to acquire settlement lock: %w", err)
	}
	if !acquired {
		return models.ErrRunInProgress
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			p.logger.WithError(releaseErr).Warn("Failed to release settlement lock")
		}
	}()

	start := time.Now()

	proposed, err := p.repos.Parlay.GetProposed(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to load proposed parlays: %w", err)
	}
	if len(proposed) == 0 {
		metrics.ProposedParlays.Set(0)
		return nil
	}

	outcomes, err := p.fetchOutcomes(ctx, proposed, now)
	if err != nil {
		return err
	}

	settled := 0
	for _, parlay := range proposed {
		if !p.settler.Settle(parlay, outcomes, now) {
			continue
		}
		if err := p.repos.Parlay.UpdateSettlement(ctx, parlay); err != nil {
			return fmt.Errorf("failed to persist settlement for %s: %w", parlay.ID, err)
		}
		metrics.RecordParlaySettled(string(parlay.Status))
		settled++
	}

	metrics.ProposedParlays.Set(float64(len(proposed) - settled))
	metrics.SettlementPassDuration.Observe(time.Since(start).Seconds())
	p.updateROI(ctx)

	p.runLog.LogSettlementComplete(len(proposed), settled, len(proposed)-settled, time.Since(start))
	return nil
}

// fetchOutcomes gathers outcomes for every sport that appears in the proposed
// parlays, merged into one lookup map.
func (p *Pipeline) fetchOutcomes(ctx context.Context, parlays []*models.Parlay, now time.Time) (map[string]datasource.Outcome, error) {
	sports := make(map[string]struct{})
	for _, parlay := range parlays {
		for _, leg := range parlay.Legs {
			sports[leg.Sport] = struct{}{}
		}
	}

	merged := make(map[string]datasource.Outcome)
	for sport := range sports {
		outcomes, err := p.sources.Outcomes.FetchOutcomes(ctx, sport, now)
		if err != nil {
			metrics.RecordDataSourceError("outcomes")
			return nil, fmt.Errorf("failed to fetch outcomes for %s: %w", sport, err)
		}
		for k, v := range outcomes {
			merged[k] = v
		}
	}

	return merged, nil
}

func (p *Pipeline) updateROI(ctx context.Context) {
	settled, err := p.repos.Parlay.GetSettled(ctx, 1000)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load settled parlays for ROI")
		return
	}
	perf := models.ComputePerformance(settled)
	metrics.CumulativeROI.Set(perf.ROI)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
