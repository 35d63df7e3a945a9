package engine

import (
	"sort"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/models"
)

// Selector filters scored opportunities down to the candidate pool the
// composer draws from. Acceptance requires the price inside the configured
// band and the confidence at or above the floor; everything else is dropped
// with a logged reason.
type Selector struct {
	cfg config.SelectorConfig
	log *logger.RunLogger
}

// NewSelector creates a selector with the given thresholds
func NewSelector(cfg config.SelectorConfig, log *logger.RunLogger) *Selector {
	return &Selector{cfg: cfg, log: log}
}

// Select returns the accepted opportunities ordered by confidence descending,
// with price ascending and subject ascending as tie-breaks. The ordering is
// total, so a cycle over unchanged inputs yields the same candidate sequence.
func (s *Selector) Select(opportunities []*models.Opportunity) []*models.Opportunity {
	accepted := make([]*models.Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		switch {
		case !o.PriceInRange(s.cfg.MinPrice, s.cfg.MaxPrice):
			s.log.LogOpportunityDropped(o.Sport, o.Subject, "price_out_of_range")
		case !o.MeetsThreshold(s.cfg.MinConfidence):
			s.log.LogOpportunityDropped(o.Sport, o.Subject, "below_confidence_floor")
		default:
			accepted = append(accepted, o)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].Confidence != accepted[j].Confidence {
			return accepted[i].Confidence > accepted[j].Confidence
		}
		if accepted[i].Price != accepted[j].Price {
			return accepted[i].Price < accepted[j].Price
		}
		return accepted[i].Subject < accepted[j].Subject
	})

	return accepted
}
