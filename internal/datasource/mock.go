package datasource

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/yourusername/sharpline/internal/models"
)

// MockSource serves deterministic fixture data for development and tests.
// It is selected automatically when no odds API key is configured, so the
// full pipeline can run end to end without credentials.
type MockSource struct{}

// NewMockSource creates a fixture-backed data source
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Name returns the data source identifier
func (s *MockSource) Name() string {
	return "mock"
}

type mockProp struct {
	subject string
	market  string
	line    float64
	price   float64
	history []float64
}

type mockGame struct {
	home      string
	away      string
	homePrice float64
	awayPrice float64
	homeScore float64
	awayScore float64
}

var mockProps = map[string][]mockProp{
	"basketball_nba": {
		{"LeBron James points", "points", 24.5, 1.30, []float64{28, 31, 25, 27, 30, 26, 29, 33, 27, 28, 31, 26}},
		{"Stephen Curry points", "points", 26.5, 1.35, []float64{29, 24, 31, 28, 33, 27, 30, 25, 32, 29, 28, 34}},
		{"Nikola Jokic rebounds", "rebounds", 11.5, 1.28, []float64{13, 14, 12, 15, 13, 12, 14, 16, 13, 12, 14, 13}},
		{"Luka Doncic assists", "assists", 8.5, 1.42, []float64{9, 10, 8, 11, 9, 7, 10, 9, 12, 8, 10, 9}},
		{"Giannis Antetokounmpo points", "points", 29.5, 1.45, []float64{31, 28, 34, 30, 27, 33, 29, 35, 31, 28, 32, 30}},
		{"Joel Embiid points", "points", 31.5, 1.60, []float64{33, 28, 35, 30, 36, 29, 32, 34, 27, 31, 35, 33}},
	},
	"soccer_epl": {
		{"Arsenal corners", "corners", 5.5, 1.36, []float64{7, 6, 8, 6, 7, 9, 6, 7, 8, 6, 7, 7}},
		{"Manchester City shots on target", "shots_on_target", 5.5, 1.33, []float64{7, 8, 6, 7, 9, 6, 8, 7, 6, 8, 7, 9}},
		{"Liverpool corners", "corners", 5.5, 1.40, []float64{6, 7, 5, 8, 7, 6, 7, 6, 8, 7, 5, 7}},
	},
}

var mockGames = map[string][]mockGame{
	"basketball_nba": {
		{"Boston Celtics", "Detroit Pistons", 1.18, 5.20, 118, 102},
		{"Denver Nuggets", "Washington Wizards", 1.22, 4.40, 121, 109},
		{"Oklahoma City Thunder", "Charlotte Hornets", 1.15, 6.00, 126, 104},
	},
	"soccer_epl": {
		{"Manchester City", "Luton Town", 1.12, 18.00, 4, 0},
		{"Arsenal", "Sheffield United", 1.20, 14.00, 3, 0},
	},
}

// FetchOpportunities returns the fixture prop and game records for the sport.
// Records are identical across calls for the same sport, which keeps the
// pipeline's idempotence observable in development.
func (s *MockSource) FetchOpportunities(ctx context.Context, sport string, date time.Time) ([]OpportunityRecord, error) {
	eventTime := date.Truncate(24 * time.Hour).Add(19 * time.Hour)

	var records []OpportunityRecord
	for _, p := range mockProps[sport] {
		records = append(records, OpportunityRecord{
			Sport:     sport,
			Kind:      models.OpportunityKindProp,
			Subject:   p.subject,
			Market:    p.market,
			Line:      p.line,
			Direction: models.LineOver,
			Price:     p.price,
			EventTime: eventTime,
		})
	}

	for _, g := range mockGames[sport] {
		prices := []float64{g.homePrice, g.awayPrice}
		records = append(records, OpportunityRecord{
			Sport:       sport,
			Kind:        models.OpportunityKindGame,
			Subject:     g.home,
			Market:      "h2h",
			Direction:   models.LineOver,
			Price:       g.homePrice,
			EventPrices: prices,
			HomeSide:    true,
			EventTime:   eventTime,
		})
		records = append(records, OpportunityRecord{
			Sport:       sport,
			Kind:        models.OpportunityKindGame,
			Subject:     g.away,
			Market:      "h2h",
			Direction:   models.LineOver,
			Price:       g.awayPrice,
			EventPrices: prices,
			EventTime:   eventTime,
		})
	}

	return records, nil
}

// FetchObservations returns the fixture history for a subject, or an empty
// slice when the subject has none.
func (s *MockSource) FetchObservations(ctx context.Context, sport, subject, market string) ([]float64, error) {
	for _, p := range mockProps[sport] {
		if p.subject == subject && p.market == market {
			out := make([]float64, len(p.history))
			copy(out, p.history)
			return out, nil
		}
	}
	return nil, nil
}

// FetchOutcomes settles fixture props against a value derived from the
// subject name and fixture games against their scripted scores. The derived
// prop values are stable across calls so repeated settlement passes agree.
func (s *MockSource) FetchOutcomes(ctx context.Context, sport string, date time.Time) (map[string]Outcome, error) {
	outcomes := make(map[string]Outcome)

	for _, p := range mockProps[sport] {
		outcomes[OutcomeKey(sport, p.subject, p.market)] = Outcome{
			Sport:   sport,
			Subject: p.subject,
			Market:  p.market,
			Value:   mockRealizedValue(p),
			Status:  OutcomeStatusCompleted,
		}
	}

	for _, g := range mockGames[sport] {
		homeWon, awayWon := 0.0, 0.0
		if g.homeScore > g.awayScore {
			homeWon = 1.0
		} else if g.awayScore > g.homeScore {
			awayWon = 1.0
		}
		outcomes[OutcomeKey(sport, g.home, "h2h")] = Outcome{
			Sport: sport, Subject: g.home, Market: "h2h",
			Value: homeWon, Status: OutcomeStatusCompleted,
		}
		outcomes[OutcomeKey(sport, g.away, "h2h")] = Outcome{
			Sport: sport, Subject: g.away, Market: "h2h",
			Value: awayWon, Status: OutcomeStatusCompleted,
		}
	}

	return outcomes, nil
}

// mockRealizedValue picks a realized value near the subject's line, with a
// name-hash offset so some fixture props win and some lose.
func mockRealizedValue(p mockProp) float64 {
	h := fnv.New32a()
	h.Write([]byte(p.subject + "|" + p.market))
	offset := float64(h.Sum32()%7) - 2 // -2 .. +4
	return p.line + offset
}
