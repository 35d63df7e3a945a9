package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/models"
)

// Normalizer converts raw provider records into scored opportunities. Prop
// records are enriched with historical signals and scored by the Scorer;
// game records get their confidence straight from the bookmaker's own prices
// with the margin stripped out.
type Normalizer struct {
	stats  datasource.StatsSource
	scorer *Scorer
	cfg    config.ScoringConfig
	logger *logrus.Logger
}

// NewNormalizer creates a normalizer backed by the given stats source
func NewNormalizer(stats datasource.StatsSource, scorer *Scorer, cfg config.ScoringConfig, logger *logrus.Logger) *Normalizer {
	return &Normalizer{
		stats:  stats,
		scorer: scorer,
		cfg:    cfg,
		logger: logger,
	}
}

// Normalize turns a provider record into a scored opportunity for the run
// date. The opportunity ID is deterministic, so re-running a cycle over
// unchanged inputs produces identical records.
func (n *Normalizer) Normalize(ctx context.Context, rec datasource.OpportunityRecord, runDate time.Time) (*models.Opportunity, error) {
	if rec.Price <= 1 {
		return nil, fmt.Errorf("record %s/%s has invalid price %.2f", rec.Subject, rec.Market, rec.Price)
	}

	opp := &models.Opportunity{
		ID:                 models.NewOpportunityID(runDate, rec.Sport, rec.Subject, rec.Market, rec.Line, rec.Direction),
		Sport:              rec.Sport,
		Kind:               rec.Kind,
		Subject:            rec.Subject,
		Market:             rec.Market,
		Line:               rec.Line,
		Direction:          rec.Direction,
		Price:              rec.Price,
		ImpliedProbability: 1 / rec.Price,
		EventTime:          rec.EventTime,
		RunDate:            runDate,
	}

	switch rec.Kind {
	case models.OpportunityKindGame:
		opp.Confidence = n.gameConfidence(rec)
	case models.OpportunityKindProp:
		signals, err := n.propSignals(ctx, rec)
		if err != nil {
			return nil, err
		}
		if err := opp.AttachSignals(signals); err != nil {
			return nil, fmt.Errorf("failed to attach signals: %w", err)
		}
		opp.Confidence = n.scorer.Score(signals, rec.Line, rec.Direction)
	default:
		return nil, fmt.Errorf("record %s/%s has unknown kind %q", rec.Subject, rec.Market, rec.Kind)
	}

	return opp, nil
}

// gameConfidence derives a win probability from the event's own prices. The
// raw implied probabilities of an event sum to more than one by the
// bookmaker's margin; normalizing them across the event removes it. The home
// side then gets a fixed bump, the away side the same penalty, and the result
// is clamped away from the certainty boundaries.
func (n *Normalizer) gameConfidence(rec datasource.OpportunityRecord) float64 {
	var overround float64
	for _, price := range rec.EventPrices {
		if price <= 1 {
			return 0
		}
		overround += 1 / price
	}
	if overround == 0 {
		return 0
	}

	prob := (1 / rec.Price) / overround
	if rec.HomeSide {
		prob += n.cfg.HomeAdvantage
	} else {
		prob -= n.cfg.HomeAdvantage
	}

	return math.Max(0.01, math.Min(prob, 0.99))
}

// propSignals fetches the subject's history and reduces it to the signal
// bundle the scorer consumes. An empty history is a valid result; the scorer
// maps it to zero confidence via the sample size floor.
func (n *Normalizer) propSignals(ctx context.Context, rec datasource.OpportunityRecord) (*models.Signals, error) {
	values, err := n.stats.FetchObservations(ctx, rec.Sport, rec.Subject, rec.Market)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observations for %s: %w", rec.Subject, err)
	}

	signals := &models.Signals{
		Values:     values,
		SampleSize: len(values),
	}
	if len(values) == 0 {
		n.logger.WithFields(logrus.Fields{
			"sport":   rec.Sport,
			"subject": rec.Subject,
		}).Debug("No history for subject")
		return signals, nil
	}

	signals.Mean = mean(values)
	signals.StdDev = stdDev(values, signals.Mean)
	signals.HitRate = hitRate(values, rec.Line, rec.Direction)

	recent := values
	if len(values) > n.cfg.RecentWindow {
		recent = values[len(values)-n.cfg.RecentWindow:]
	}
	signals.RecentMean = mean(recent)
	signals.RecentHitRate = hitRate(recent, rec.Line, rec.Direction)

	return signals, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation
func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func hitRate(values []float64, line float64, direction models.LineDirection) float64 {
	var hits int
	for _, v := range values {
		if direction == models.LineOver && v > line {
			hits++
		} else if direction == models.LineUnder && v < line {
			hits++
		}
	}
	return float64(hits) / float64(len(values))
}
