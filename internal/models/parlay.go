package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParlayStatus represents the lifecycle state of a parlay
type ParlayStatus string

const (
	ParlayStatusProposed    ParlayStatus = "proposed"
	ParlayStatusSettledWon  ParlayStatus = "settled_won"
	ParlayStatusSettledLost ParlayStatus = "settled_lost"
	ParlayStatusVoid        ParlayStatus = "void"
)

// LegResult represents the settlement outcome of a single parlay leg
type LegResult string

const (
	LegResultPending LegResult = "pending"
	LegResultWon     LegResult = "won"
	LegResultLost    LegResult = "lost"
	LegResultVoid    LegResult = "void"
)

// ParlayLeg is one opportunity inside a parlay. Leg composition is fixed at
// creation; settlement only appends outcome data.
type ParlayLeg struct {
	OpportunityID uuid.UUID     `json:"opportunity_id"`
	Sport         string        `json:"sport"`
	Subject       string        `json:"subject"`
	Market        string        `json:"market"`
	Line          float64       `json:"line"`
	Direction     LineDirection `json:"direction"`
	Price         float64       `json:"price"`
	Confidence    float64       `json:"confidence"`
	Result        LegResult     `json:"result"`
	RealizedValue *float64      `json:"realized_value,omitempty"`
}

// Parlay is a combination of legs that settles won only if all legs win.
// CombinedProbability is the product of leg confidences, an explicit
// independence simplification: correlated outcomes (same-game props, shared
// weather or pace) are not modeled.
type Parlay struct {
	ID                  uuid.UUID    `db:"id" json:"id" validate:"required"`
	RunDate             time.Time    `db:"run_date" json:"run_date" validate:"required"`
	Legs                []ParlayLeg  `db:"legs" json:"legs" validate:"required,min=2"`
	CombinedPrice       float64      `db:"combined_price" json:"combined_price" validate:"gt=1"`
	CombinedProbability float64      `db:"combined_probability" json:"combined_probability" validate:"gte=0,lte=1"`
	ExpectedValue       float64      `db:"expected_value" json:"expected_value"`
	StakeFraction       float64      `db:"stake_fraction" json:"stake_fraction" validate:"gt=0,lt=1"`
	NegativeEV          bool         `db:"negative_ev" json:"negative_ev"`
	Status              ParlayStatus `db:"status" json:"status" validate:"required"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	SettledAt           *time.Time   `db:"settled_at" json:"settled_at,omitempty"`
}

// NewParlayID derives a deterministic identifier from the run date and the
// ordered leg opportunity IDs.
func NewParlayID(runDate time.Time, legs []ParlayLeg) uuid.UUID {
	name := runDate.Format("2006-01-02")
	for _, leg := range legs {
		name += "|" + leg.OpportunityID.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// IsSettled reports whether the parlay has reached a terminal status
func (p *Parlay) IsSettled() bool {
	switch p.Status {
	case ParlayStatusSettledWon, ParlayStatusSettledLost, ParlayStatusVoid:
		return true
	}
	return false
}

// HasSubject reports whether any leg already uses the given subject
func (p *Parlay) HasSubject(subject string) bool {
	for _, leg := range p.Legs {
		if leg.Subject == subject {
			return true
		}
	}
	return false
}

// RealizedReturn computes the return on a unit bankroll for a settled parlay:
// stake times combined price on a win, the refunded stake on a void, zero on
// a loss. Unsettled parlays return zero.
func (p *Parlay) RealizedReturn() decimal.Decimal {
	stake := decimal.NewFromFloat(p.StakeFraction)
	switch p.Status {
	case ParlayStatusSettledWon:
		return stake.Mul(decimal.NewFromFloat(p.CombinedPrice))
	case ParlayStatusVoid:
		return stake
	default:
		return decimal.Zero
	}
}
