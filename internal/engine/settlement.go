package engine

import (
	"time"

	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/models"
)

// Settler reconciles proposed parlays against realized outcomes. Settlement
// is monotonic: a parlay moves from proposed to exactly one terminal status
// and never back.
type Settler struct{}

// NewSettler creates a settler
func NewSettler() *Settler {
	return &Settler{}
}

// Settle resolves each leg against the outcome map and derives the parlay
// status. Any lost leg loses the parlay immediately; otherwise a single
// missing or pending outcome keeps the whole parlay proposed for the next
// pass, since a parlay with an undecided leg has no defensible status yet.
// A fully decided parlay with at least one void leg settles void.
//
// The returned bool reports whether the parlay reached a terminal status.
func (s *Settler) Settle(parlay *models.Parlay, outcomes map[string]datasource.Outcome, now time.Time) bool {
	anyLost := false
	anyPending := false
	anyVoid := false

	for i := range parlay.Legs {
		leg := &parlay.Legs[i]
		if leg.Result != models.LegResultPending {
			if leg.Result == models.LegResultLost {
				anyLost = true
			} else if leg.Result == models.LegResultVoid {
				anyVoid = true
			}
			continue
		}

		outcome, ok := outcomes[datasource.OutcomeKey(leg.Sport, leg.Subject, leg.Market)]
		if !ok || outcome.Status == datasource.OutcomeStatusPending {
			anyPending = true
			continue
		}

		if outcome.Status == datasource.OutcomeStatusVoided {
			leg.Result = models.LegResultVoid
			anyVoid = true
			continue
		}

		value := outcome.Value
		leg.RealizedValue = &value
		if legWon(leg, value) {
			leg.Result = models.LegResultWon
		} else {
			leg.Result = models.LegResultLost
			anyLost = true
		}
	}

	switch {
	case anyLost:
		parlay.Status = models.ParlayStatusSettledLost
	case anyPending:
		return false
	case anyVoid:
		parlay.Status = models.ParlayStatusVoid
	default:
		parlay.Status = models.ParlayStatusSettledWon
	}

	parlay.SettledAt = &now
	return true
}

// legWon compares the realized value against the leg's line. Landing exactly
// on the line wins neither side.
func legWon(leg *models.ParlayLeg, value float64) bool {
	if leg.Direction == models.LineUnder {
		return value < leg.Line
	}
	return value > leg.Line
}
