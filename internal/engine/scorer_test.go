package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		MarginScale:       0.1,
		MarginCap:         0.30,
		HitRateWeight:     0.25,
		RecentFormWeight:  0.30,
		ConsistencyWeight: 0.15,
		Ceiling:           0.99,
		RecentWindow:      5,
		MinSampleSize:     10,
		HomeAdvantage:     0.05,
	}
}

func TestScorerStrongFavorite(t *testing.T) {
	scorer := NewScorer(testScoringConfig())

	// A subject averaging well clear of the line with perfect hit rates:
	// margin caps at 0.30, both hit rate terms max out, consistency is
	// 1/(1+2.1/27.8) * 0.15.
	signals := &models.Signals{
		SampleSize:    12,
		Mean:          27.8,
		StdDev:        2.1,
		HitRate:       1.0,
		RecentHitRate: 1.0,
	}

	score := scorer.Score(signals, 20.5, models.LineOver)
	assert.InDelta(t, 0.9895, score, 0.001)
}

func TestScorerSaturatesAtCeiling(t *testing.T) {
	scorer := NewScorer(testScoringConfig())

	// Zero variance with perfect hit rates earns every contribution in
	// full; the raw sum of 1.0 clamps to the ceiling.
	signals := &models.Signals{
		SampleSize:    15,
		Mean:          25.0,
		StdDev:        0.0,
		HitRate:       1.0,
		RecentHitRate: 1.0,
	}

	score := scorer.Score(signals, 20.5, models.LineOver)
	assert.Equal(t, 0.99, score)
}

func TestScorerThinSampleScoresZero(t *testing.T) {
	scorer := NewScorer(testScoringConfig())

	signals := &models.Signals{
		SampleSize:    9,
		Mean:          30.0,
		StdDev:        1.0,
		HitRate:       1.0,
		RecentHitRate: 1.0,
	}

	assert.Zero(t, scorer.Score(signals, 20.5, models.LineOver))
	assert.Zero(t, scorer.Score(nil, 20.5, models.LineOver))
}

func TestScorerUnfavorableMeanEarnsNoMargin(t *testing.T) {
	cfg := testScoringConfig()
	scorer := NewScorer(cfg)

	signals := &models.Signals{
		SampleSize:    12,
		Mean:          18.0,
		StdDev:        2.0,
		HitRate:       0.4,
		RecentHitRate: 0.2,
	}

	score := scorer.Score(signals, 20.5, models.LineOver)
	expected := 0.4*cfg.HitRateWeight + 0.2*cfg.RecentFormWeight +
		1/(1+2.0/18.0)*cfg.ConsistencyWeight
	assert.InDelta(t, expected, score, 1e-9)
}

func TestScorerUnderDirection(t *testing.T) {
	scorer := NewScorer(testScoringConfig())

	// For an under, the edge is how far the mean sits below the line.
	signals := &models.Signals{
		SampleSize:    12,
		Mean:          15.0,
		StdDev:        0.0,
		HitRate:       1.0,
		RecentHitRate: 1.0,
	}

	score := scorer.Score(signals, 20.5, models.LineUnder)
	assert.Equal(t, 0.99, score)

	// The same signals on the over side have no edge at all.
	over := scorer.Score(signals, 20.5, models.LineOver)
	assert.Less(t, over, 0.99)
}

func TestScorerZeroMeanHasNoConsistency(t *testing.T) {
	scorer := NewScorer(testScoringConfig())

	signals := &models.Signals{
		SampleSize: 12,
		Mean:       0,
		StdDev:     0,
	}

	assert.Zero(t, scorer.Score(signals, 5.5, models.LineOver))
}
