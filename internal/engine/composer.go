package engine

import (
	"time"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/models"
)

// Composer builds parlays from the selector's candidate pool. Composition is
// greedy over the pool's ordering: each parlay takes candidates in sequence,
// skipping subjects it already holds and stopping when adding a leg would pull
// the combined confidence below the floor or the leg cap is reached. Each
// candidate appears in at most one parlay per cycle.
type Composer struct {
	cfg config.ParlayConfig
	log *logger.RunLogger
}

// NewComposer creates a composer with the given constraints
func NewComposer(cfg config.ParlayConfig, log *logger.RunLogger) *Composer {
	return &Composer{cfg: cfg, log: log}
}

// Compose builds up to MaxParlays parlays for the run date. Candidates must
// already be ordered (the selector's ordering is assumed); since both the
// input ordering and the greedy walk are deterministic, the same pool always
// yields the same parlays with the same IDs.
func (c *Composer) Compose(candidates []*models.Opportunity, runDate time.Time) []*models.Parlay {
	used := make([]bool, len(candidates))
	var parlays []*models.Parlay

	for len(parlays) < c.cfg.MaxParlays {
		parlay := c.buildOne(candidates, used)
		if parlay == nil {
			break
		}
		parlay.RunDate = runDate
		parlay.ID = models.NewParlayID(runDate, parlay.Legs)
		parlays = append(parlays, parlay)

		c.log.LogParlayComposed(parlay.ID.String(), len(parlay.Legs),
			parlay.CombinedPrice, parlay.CombinedProbability, parlay.ExpectedValue, parlay.NegativeEV)
	}

	return parlays
}

// buildOne assembles a single parlay from the unused candidates, or returns
// nil when the remaining pool cannot reach the minimum leg count. Candidates
// are sorted by confidence descending, so once a walk falls short no later
// walk over a strictly smaller pool can do better.
func (c *Composer) buildOne(candidates []*models.Opportunity, used []bool) *models.Parlay {
	parlay := &models.Parlay{
		CombinedPrice:       1,
		CombinedProbability: 1,
		StakeFraction:       c.cfg.StakeFraction,
		Status:              models.ParlayStatusProposed,
	}

	var taken []int
	for i, o := range candidates {
		if used[i] || parlay.HasSubject(o.Subject) {
			continue
		}
		if parlay.CombinedProbability*o.Confidence < c.cfg.MinCombinedConfidence {
			continue
		}

		parlay.Legs = append(parlay.Legs, models.ParlayLeg{
			OpportunityID: o.ID,
			Sport:         o.Sport,
			Subject:       o.Subject,
			Market:        o.Market,
			Line:          o.Line,
			Direction:     o.Direction,
			Price:         o.Price,
			Confidence:    o.Confidence,
			Result:        models.LegResultPending,
		})
		parlay.CombinedPrice *= o.Price
		parlay.CombinedProbability *= o.Confidence
		taken = append(taken, i)

		if len(parlay.Legs) == c.cfg.MaxLegs {
			break
		}
	}

	if len(parlay.Legs) < c.cfg.MinLegs {
		return nil
	}

	for _, i := range taken {
		used[i] = true
	}

	parlay.ExpectedValue = parlay.CombinedProbability*parlay.CombinedPrice - 1
	parlay.NegativeEV = parlay.ExpectedValue < 0

	return parlay
}
