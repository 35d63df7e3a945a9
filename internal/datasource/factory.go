package datasource

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
)

// Sources bundles the three provider interfaces the pipeline consumes
type Sources struct {
	Odds     OddsSource
	Stats    StatsSource
	Outcomes OutcomeSource
}

// NewSources builds the configured provider set. With provider "mock" (or no
// API key) everything is served from fixtures; with "oddsapi" the odds and
// outcomes come from The Odds API and prop histories are unavailable, so the
// stats source reports empty histories and prop records score zero.
func NewSources(cfg *config.Config, logger *logrus.Logger) *Sources {
	if cfg.UseMockSources() {
		logger.Info("Using mock data sources")
		mock := NewMockSource()
		return &Sources{
			Odds:     mock,
			Stats:    NewCachedStatsSource(mock, time.Duration(cfg.DataSources.StatsCacheTTLSeconds)*time.Second),
			Outcomes: mock,
		}
	}

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.DataSources.RequestTimeoutSeconds) * time.Second
	httpCfg.RateLimit = cfg.DataSources.RateLimitPerSecond
	client := NewRateLimitedHTTPClient(httpCfg, logger)

	api := NewOddsAPISource(cfg.DataSources.OddsAPIURL, cfg.DataSources.OddsAPIKey, client, logger)
	return &Sources{
		Odds:     api,
		Stats:    NewCachedStatsSource(emptyStatsSource{}, time.Duration(cfg.DataSources.StatsCacheTTLSeconds)*time.Second),
		Outcomes: api,
	}
}

// emptyStatsSource reports no history for any subject
type emptyStatsSource struct{}

func (emptyStatsSource) FetchObservations(ctx context.Context, sport, subject, market string) ([]float64, error) {
	return nil, nil
}
