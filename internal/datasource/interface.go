package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/sharpline/internal/models"
)

// OpportunityRecord is a raw betting opportunity as supplied by a provider,
// before normalization and scoring.
type OpportunityRecord struct {
	Sport     string                 `json:"sport"`
	Kind      models.OpportunityKind `json:"kind"`
	Subject   string                 `json:"subject"` // player or team the record is about
	Market    string                 `json:"market"`  // e.g. "points", "corners", "h2h"
	Line      float64                `json:"line"`
	Direction models.LineDirection   `json:"direction"`
	Price     float64                `json:"price"` // decimal odds
	// EventPrices carries the decimal prices of all outcomes of the same
	// event so the normalizer can strip the bookmaker margin. Empty for
	// prop records.
	EventPrices []float64 `json:"event_prices,omitempty"`
	// HomeSide marks the home outcome of a game record.
	HomeSide  bool      `json:"home_side,omitempty"`
	EventTime time.Time `json:"event_time"`
}

// OutcomeStatus describes the completion state of an event
type OutcomeStatus string

const (
	OutcomeStatusCompleted OutcomeStatus = "completed"
	OutcomeStatusPending   OutcomeStatus = "pending"
	OutcomeStatusVoided    OutcomeStatus = "voided"
)

// Outcome is the realized value for a previously proposed opportunity
type Outcome struct {
	Sport   string        `json:"sport"`
	Subject string        `json:"subject"`
	Market  string        `json:"market"`
	Value   float64       `json:"value"`
	Status  OutcomeStatus `json:"status"`
}

// OutcomeKey identifies an outcome within a settlement pass
func OutcomeKey(sport, subject, market string) string {
	return sport + "|" + subject + "|" + market
}

// OddsSource supplies raw opportunity records per sport
type OddsSource interface {
	FetchOpportunities(ctx context.Context, sport string, date time.Time) ([]OpportunityRecord, error)
	Name() string
}

// StatsSource supplies historical observation values per subject. A source
// that has no history for a subject returns an empty slice, not an error:
// absent history is zero signal.
type StatsSource interface {
	FetchObservations(ctx context.Context, sport, subject, market string) ([]float64, error)
}

// OutcomeSource supplies realized values once events complete, keyed by
// OutcomeKey. Events still in play are reported with OutcomeStatusPending.
type OutcomeSource interface {
	FetchOutcomes(ctx context.Context, sport string, date time.Time) (map[string]Outcome, error)
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// Error constructors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidData          = errors.New("invalid data format")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
