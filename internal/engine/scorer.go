package engine

import (
	"math"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

// Scorer turns a prop's historical signals into a confidence score. The score
// is a sum of bounded contributions, saturating at the configured ceiling:
//
//	margin      how far the subject's mean clears the line, in standard
//	            deviations, scaled and capped
//	hit rate    fraction of all observations beating the line
//	recent form hit rate over the most recent observations
//	consistency inverse of the coefficient of variation
type Scorer struct {
	cfg config.ScoringConfig
}

// NewScorer creates a scorer with the given weights
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the confidence for a prop from its signals. Subjects with
// fewer observations than the minimum sample size score zero: thin history
// is indistinguishable from noise.
func (s *Scorer) Score(signals *models.Signals, line float64, direction models.LineDirection) float64 {
	if signals == nil || signals.SampleSize < s.cfg.MinSampleSize {
		return 0
	}

	score := s.marginContribution(signals.Mean, signals.StdDev, line, direction)
	score += signals.HitRate * s.cfg.HitRateWeight
	score += signals.RecentHitRate * s.cfg.RecentFormWeight
	score += s.consistencyContribution(signals.Mean, signals.StdDev)

	return math.Min(score, s.cfg.Ceiling)
}

// marginContribution rewards distance between the mean and the line measured
// in standard deviations. A zero standard deviation with a favorable mean is
// maximal edge and earns the full cap.
func (s *Scorer) marginContribution(mean, stdDev, line float64, direction models.LineDirection) float64 {
	edge := mean - line
	if direction == models.LineUnder {
		edge = line - mean
	}

	if edge <= 0 {
		return 0
	}
	if stdDev == 0 {
		return s.cfg.MarginCap
	}

	return math.Min(edge/stdDev*s.cfg.MarginScale, s.cfg.MarginCap)
}

// consistencyContribution rewards low variance relative to the mean
func (s *Scorer) consistencyContribution(mean, stdDev float64) float64 {
	if mean <= 0 {
		return 0
	}
	return 1 / (1 + stdDev/mean) * s.cfg.ConsistencyWeight
}
