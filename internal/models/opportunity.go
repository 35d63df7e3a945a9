package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OpportunityKind distinguishes game-level bets from player/team props
type OpportunityKind string

const (
	OpportunityKindGame OpportunityKind = "game"
	OpportunityKindProp OpportunityKind = "prop"
)

// LineDirection is the side of the line the opportunity is taken on
type LineDirection string

const (
	LineOver  LineDirection = "over"
	LineUnder LineDirection = "under"
)

// Opportunity represents a single proposed bet with price and derived confidence.
// Opportunities are immutable within an update cycle; the next cycle supersedes
// them with new records rather than mutating existing ones.
type Opportunity struct {
	ID                 uuid.UUID       `db:"id" json:"id" validate:"required"`
	Sport              string          `db:"sport" json:"sport" validate:"required"`
	Kind               OpportunityKind `db:"kind" json:"kind" validate:"required,oneof=game prop"`
	Subject            string          `db:"subject" json:"subject" validate:"required"` // player+stat or team+market
	Market             string          `db:"market" json:"market" validate:"required"`   // e.g. "points", "corners", "h2h"
	Line               float64         `db:"line" json:"line"`
	Direction          LineDirection   `db:"direction" json:"direction" validate:"required,oneof=over under"`
	Price              float64         `db:"price" json:"price" validate:"required,gt=1"` // decimal odds
	ImpliedProbability float64         `db:"implied_probability" json:"implied_probability" validate:"gte=0,lte=1"`
	Confidence         float64         `db:"confidence" json:"confidence" validate:"gte=0,lte=1"`
	Signals            json.RawMessage `db:"signals" json:"signals,omitempty"`
	EventTime          time.Time       `db:"event_time" json:"event_time"`
	RunDate            time.Time       `db:"run_date" json:"run_date" validate:"required"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// NewOpportunityID derives a deterministic identifier for an opportunity so
// that re-running an update cycle over unchanged inputs yields identical
// records.
func NewOpportunityID(runDate time.Time, sport, subject, market string, line float64, direction LineDirection) uuid.UUID {
	name := runDate.Format("2006-01-02") + "|" + sport + "|" + subject + "|" + market + "|" +
		string(direction) + "|" + formatLine(line)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

func formatLine(line float64) string {
	b, _ := json.Marshal(line)
	return string(b)
}

// MeetsThreshold checks if the confidence meets the given threshold
func (o *Opportunity) MeetsThreshold(threshold float64) bool {
	return o.Confidence >= threshold
}

// PriceInRange reports whether the price lies in the closed interval [min, max]
func (o *Opportunity) PriceInRange(min, max float64) bool {
	return o.Price >= min && o.Price <= max
}

// AttachSignals serializes the signals bundle onto the opportunity
func (o *Opportunity) AttachSignals(s *Signals) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	o.Signals = data
	return nil
}

// GetSignals deserializes the stored signals bundle, if any
func (o *Opportunity) GetSignals() (*Signals, error) {
	if o.Signals == nil {
		return nil, nil
	}
	s := &Signals{}
	if err := json.Unmarshal(o.Signals, s); err != nil {
		return nil, err
	}
	return s, nil
}
