package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
)

// OddsAPISource fetches h2h odds and event scores from The Odds API
// (https://the-odds-api.com). It implements both OddsSource and
// OutcomeSource; historical player statistics are not part of that API,
// so StatsSource is covered elsewhere.
type OddsAPISource struct {
	baseURL string
	apiKey  string
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewOddsAPISource creates a new Odds API client
func NewOddsAPISource(baseURL, apiKey string, client *RateLimitedHTTPClient, logger *logrus.Logger) *OddsAPISource {
	return &OddsAPISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

// Name returns the data source identifier
func (s *OddsAPISource) Name() string {
	return "oddsapi"
}

// oddsAPIEvent mirrors the /v4/sports/{sport}/odds response shape
type oddsAPIEvent struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	CommenceTime time.Time           `json:"commence_time"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker  `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key     string          `json:"key"`
	Markets []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// oddsAPIScore mirrors the /v4/sports/{sport}/scores response shape
type oddsAPIScore struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	CommenceTime time.Time `json:"commence_time"`
	Completed    bool      `json:"completed"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Scores       []struct {
		Name  string `json:"name"`
		Score string `json:"score"`
	} `json:"scores"`
}

// FetchOpportunities retrieves upcoming h2h markets for the sport and flattens
// each bookmaker outcome into an OpportunityRecord. The first listed bookmaker
// is taken per event; prices across books rarely diverge enough to matter at
// the short prices the selector accepts.
func (s *OddsAPISource) FetchOpportunities(ctx context.Context, sport string, date time.Time) ([]OpportunityRecord, error) {
	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds?%s", s.baseURL, url.PathEscape(sport), url.Values{
		"apiKey":     {s.apiKey},
		"regions":    {"eu"},
		"markets":    {"h2h"},
		"oddsFormat": {"decimal"},
	}.Encode())

	var events []oddsAPIEvent
	if err := s.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	var records []OpportunityRecord
	for _, ev := range events {
		if len(ev.Bookmakers) == 0 {
			continue
		}

		var h2h *oddsAPIMarket
		for i := range ev.Bookmakers[0].Markets {
			if ev.Bookmakers[0].Markets[i].Key == "h2h" {
				h2h = &ev.Bookmakers[0].Markets[i]
				break
			}
		}
		if h2h == nil || len(h2h.Outcomes) < 2 {
			continue
		}

		prices := make([]float64, 0, len(h2h.Outcomes))
		for _, o := range h2h.Outcomes {
			if o.Price <= 1 {
				prices = nil
				break
			}
			prices = append(prices, o.Price)
		}
		if prices == nil {
			s.logger.WithField("event_id", ev.ID).Warn("Skipping event with malformed prices")
			continue
		}

		for i, o := range h2h.Outcomes {
			if o.Name == "Draw" {
				continue
			}
			records = append(records, OpportunityRecord{
				Sport:       sport,
				Kind:        models.OpportunityKindGame,
				Subject:     o.Name,
				Market:      "h2h",
				Direction:   models.LineOver,
				Price:       prices[i],
				EventPrices: prices,
				HomeSide:    o.Name == ev.HomeTeam,
				EventTime:   ev.CommenceTime,
			})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"sport":   sport,
		"events":  len(events),
		"records": len(records),
	}).Debug("Fetched odds")

	return records, nil
}

// FetchOutcomes retrieves recent scores and maps each team of a completed
// event to a won/lost outcome value. Events still in play are reported as
// pending so settlement can retry them on the next pass.
func (s *OddsAPISource) FetchOutcomes(ctx context.Context, sport string, date time.Time) (map[string]Outcome, error) {
	endpoint := fmt.Sprintf("%s/v4/sports/%s/scores?%s", s.baseURL, url.PathEscape(sport), url.Values{
		"apiKey":   {s.apiKey},
		"daysFrom": {"3"},
	}.Encode())

	var scores []oddsAPIScore
	if err := s.getJSON(ctx, endpoint, &scores); err != nil {
		return nil, err
	}

	outcomes := make(map[string]Outcome)
	for _, sc := range scores {
		if !sc.Completed {
			for _, name := range []string{sc.HomeTeam, sc.AwayTeam} {
				outcomes[OutcomeKey(sport, name, "h2h")] = Outcome{
					Sport: sport, Subject: name, Market: "h2h",
					Status: OutcomeStatusPending,
				}
			}
			continue
		}

		points := make(map[string]float64, len(sc.Scores))
		for _, entry := range sc.Scores {
			v, err := strconv.ParseFloat(entry.Score, 64)
			if err != nil {
				continue
			}
			points[entry.Name] = v
		}

		home, homeOK := points[sc.HomeTeam]
		away, awayOK := points[sc.AwayTeam]
		if !homeOK || !awayOK {
			continue
		}

		status := OutcomeStatusCompleted
		if home == away {
			// Tied h2h markets are voided rather than force-settled.
			status = OutcomeStatusVoided
		}

		homeWon, awayWon := 0.0, 0.0
		if home > away {
			homeWon = 1.0
		} else if away > home {
			awayWon = 1.0
		}

		outcomes[OutcomeKey(sport, sc.HomeTeam, "h2h")] = Outcome{
			Sport: sport, Subject: sc.HomeTeam, Market: "h2h",
			Value: homeWon, Status: status,
		}
		outcomes[OutcomeKey(sport, sc.AwayTeam, "h2h")] = Outcome{
			Sport: sport, Subject: sc.AwayTeam, Market: "h2h",
			Value: awayWon, Status: status,
		}
	}

	return outcomes, nil
}

func (s *OddsAPISource) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return NewDataSourceError(s.Name(), ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewDataSourceError(s.Name(), ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(s.Name(), ErrCodeRateLimitExceeded, "quota exhausted", ErrRateLimitExceeded)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewDataSourceError(s.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewDataSourceError(s.Name(), ErrCodeInvalidData, "failed to decode response", err)
	}

	return nil
}
