package models

import (
	"github.com/shopspring/decimal"
)

// PerformanceRecord is a derived read-model aggregating settled parlays. It
// is recomputed from settled entities on demand, never maintained as an
// independent source of truth.
type PerformanceRecord struct {
	TotalParlays  int             `json:"total_parlays"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	Voided        int             `json:"voided"`
	TotalStaked   decimal.Decimal `json:"total_staked"`   // sum of stake fractions
	TotalReturned decimal.Decimal `json:"total_returned"` // sum of realized returns
	ROI           float64         `json:"roi"`            // (returned - staked) / staked
	WinRate       float64         `json:"win_rate"`       // wins / (wins + losses)
	AverageOdds   float64         `json:"average_odds"`
}

// ComputePerformance folds a set of parlays into a performance record.
// Unsettled parlays are ignored; void parlays count toward volume but not the
// win rate.
func ComputePerformance(parlays []*Parlay) *PerformanceRecord {
	rec := &PerformanceRecord{
		TotalStaked:   decimal.Zero,
		TotalReturned: decimal.Zero,
	}

	oddsSum := 0.0
	for _, p := range parlays {
		if !p.IsSettled() {
			continue
		}

		rec.TotalParlays++
		rec.TotalStaked = rec.TotalStaked.Add(decimal.NewFromFloat(p.StakeFraction))
		rec.TotalReturned = rec.TotalReturned.Add(p.RealizedReturn())
		oddsSum += p.CombinedPrice

		switch p.Status {
		case ParlayStatusSettledWon:
			rec.Wins++
		case ParlayStatusSettledLost:
			rec.Losses++
		case ParlayStatusVoid:
			rec.Voided++
		}
	}

	if decided := rec.Wins + rec.Losses; decided > 0 {
		rec.WinRate = float64(rec.Wins) / float64(decided)
	}
	if rec.TotalParlays > 0 {
		rec.AverageOdds = oddsSum / float64(rec.TotalParlays)
	}
	if rec.TotalStaked.IsPositive() {
		roi, _ := rec.TotalReturned.Sub(rec.TotalStaked).Div(rec.TotalStaked).Float64()
		rec.ROI = roi
	}

	return rec
}
