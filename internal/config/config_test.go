package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "sharpline",
			Environment: "development",
			LogLevel:    "info",
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               5432,
			Name:               "sharpline",
			User:               "sharpline",
			Password:           "secret",
			SSLMode:            "disable",
			MaxConnections:     10,
			MaxIdleConnections: 2,
		},
		DataSources: DataSourcesConfig{
			Provider:              "mock",
			Sports:                []string{"basketball_nba", "soccer_epl"},
			OddsAPIURL:            "https://api.the-odds-api.com/v4",
			RequestTimeoutSeconds: 10,
			RateLimitPerSecond:    5,
			StatsCacheTTLSeconds:  3600,
		},
		Scoring: ScoringConfig{
			MarginScale:       0.1,
			MarginCap:         0.30,
			HitRateWeight:     0.25,
			RecentFormWeight:  0.30,
			ConsistencyWeight: 0.15,
			Ceiling:           0.99,
			RecentWindow:      5,
			MinSampleSize:     10,
			HomeAdvantage:     0.05,
		},
		Selector: SelectorConfig{
			MinPrice:      1.01,
			MaxPrice:      1.50,
			MinConfidence: 0.65,
		},
		Parlay: ParlayConfig{
			MinLegs:               2,
			MaxLegs:               5,
			MinCombinedConfidence: 0.40,
			StakeFraction:         0.02,
			MaxParlays:            5,
		},
		Schedule: ScheduleConfig{
			UpdateCron:                "0 6 * * *",
			SettlementIntervalMinutes: 120,
		},
		API: APIConfig{
			Port:            8000,
			ShutdownSeconds: 15,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsInvertedPriceRange(t *testing.T) {
	cfg := validConfig()
	cfg.Selector.MinPrice = 2.0
	cfg.Selector.MaxPrice = 1.5

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "min_price")
}

func TestValidateRejectsInvertedLegBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Parlay.MinLegs = 6
	cfg.Parlay.MaxLegs = 5

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestValidateRejectsUnreachableCeiling(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.MarginCap = 0.10
	cfg.Scoring.HitRateWeight = 0.10
	cfg.Scoring.RecentFormWeight = 0.10
	cfg.Scoring.ConsistencyWeight = 0.10

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "ceiling")
}

func TestValidateRejectsBadCron(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.UpdateCron = "not a cron spec"

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestValidateRequiresAPIKeyForOddsAPIProvider(t *testing.T) {
	cfg := validConfig()
	cfg.DataSources.Provider = "oddsapi"
	cfg.DataSources.OddsAPIKey = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestValidateRejectsDisabledSSLInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "disable"

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestUseMockSources(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.UseMockSources())

	cfg.DataSources.Provider = "oddsapi"
	cfg.DataSources.OddsAPIKey = ""
	assert.True(t, cfg.UseMockSources(), "missing API key falls back to mock")

	cfg.DataSources.OddsAPIKey = "key"
	assert.False(t, cfg.UseMockSources())
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults("testdata/does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.DataSources.Provider)
	assert.InDelta(t, 0.99, cfg.Scoring.Ceiling, 1e-12)
	assert.InDelta(t, 1.01, cfg.Selector.MinPrice, 1e-12)
	assert.InDelta(t, 1.50, cfg.Selector.MaxPrice, 1e-12)
	assert.Equal(t, 5, cfg.Parlay.MaxLegs)
	assert.InDelta(t, 0.02, cfg.Parlay.StakeFraction, 1e-12)
	require.NoError(t, Validate(cfg))
}
