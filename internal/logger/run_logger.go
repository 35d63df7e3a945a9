// Package logger provides pipeline-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger provides dedicated logging for update and settlement runs.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new run logger.
func NewRunLogger(baseLogger *logrus.Logger) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogUpdateStart logs the start of an update run.
func (rl *RunLogger) LogUpdateStart(runDate time.Time, sports []string) {
	rl.WithFields(logrus.Fields{
		"run_date": runDate.Format("2006-01-02"),
		"sports":   sports,
	}).Info("Update run started")
}

// LogUpdateComplete logs the result of an update run.
func (rl *RunLogger) LogUpdateComplete(runDate time.Time, opportunities, selected, parlays int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"run_date":      runDate.Format("2006-01-02"),
		"opportunities": opportunities,
		"selected":      selected,
		"parlays":       parlays,
		"duration_ms":   duration.Milliseconds(),
	}).Info("Update run completed")
}

// LogOpportunityDropped logs an opportunity excluded from the pool with the reason.
func (rl *RunLogger) LogOpportunityDropped(sport, subject, reason string) {
	rl.WithFields(logrus.Fields{
		"sport":   sport,
		"subject": subject,
		"reason":  reason,
	}).Debug("Opportunity dropped from pool")
}

// LogParlayComposed logs a composed parlay.
func (rl *RunLogger) LogParlayComposed(parlayID string, legs int, combinedPrice, combinedProbability, expectedValue float64, negativeEV bool) {
	rl.WithFields(logrus.Fields{
		"parlay_id":            parlayID,
		"legs":                 legs,
		"combined_price":       combinedPrice,
		"combined_probability": combinedProbability,
		"expected_value":       expectedValue,
		"negative_ev":          negativeEV,
	}).Info("Parlay composed")
}

// LogSettlementComplete logs the result of a settlement pass.
func (rl *RunLogger) LogSettlementComplete(examined, settled, pending int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"examined":    examined,
		"settled":     settled,
		"pending":     pending,
		"duration_ms": duration.Milliseconds(),
	}).Info("Settlement pass completed")
}
