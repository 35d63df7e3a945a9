// Package config provides configuration management for the Sharpline service.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	DataSources DataSourcesConfig `mapstructure:"data_sources" validate:"required"`
	Scoring     ScoringConfig     `mapstructure:"scoring" validate:"required"`
	Selector    SelectorConfig    `mapstructure:"selector" validate:"required"`
	Parlay      ParlayConfig      `mapstructure:"parlay" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule" validate:"required"`
	API         APIConfig         `mapstructure:"api" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// DataSourcesConfig represents odds/stats/outcome sourcing configuration.
// Provider "mock" serves deterministic fixture data and is selected
// automatically when no API key is configured.
type DataSourcesConfig struct {
	Provider              string   `mapstructure:"provider" validate:"required,oneof=oddsapi mock"`
	Sports                []string `mapstructure:"sports" validate:"required,min=1"`
	OddsAPIURL            string   `mapstructure:"odds_api_url" validate:"omitempty,url"`
	OddsAPIKey            string   `mapstructure:"odds_api_key"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RateLimitPerSecond    float64  `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	StatsCacheTTLSeconds  int      `mapstructure:"stats_cache_ttl_seconds" validate:"required,gt=0"`
}

// ScoringConfig holds the confidence heuristic weights and caps. Each
// component contributes a bounded increment; the sum saturates at Ceiling.
type ScoringConfig struct {
	MarginScale       float64 `mapstructure:"margin_scale" validate:"required,gt=0"`
	MarginCap         float64 `mapstructure:"margin_cap" validate:"required,gt=0,lt=1"`
	HitRateWeight     float64 `mapstructure:"hit_rate_weight" validate:"required,gt=0,lt=1"`
	RecentFormWeight  float64 `mapstructure:"recent_form_weight" validate:"required,gt=0,lt=1"`
	ConsistencyWeight float64 `mapstructure:"consistency_weight" validate:"required,gt=0,lt=1"`
	Ceiling           float64 `mapstructure:"ceiling" validate:"required,gt=0,lt=1"`
	RecentWindow      int     `mapstructure:"recent_window" validate:"required,gt=0"`
	MinSampleSize     int     `mapstructure:"min_sample_size" validate:"required,gt=0"`
	HomeAdvantage     float64 `mapstructure:"home_advantage" validate:"gte=0,lte=0.5"`
}

// SelectorConfig holds the opportunity acceptance thresholds
type SelectorConfig struct {
	MinPrice      float64 `mapstructure:"min_price" validate:"required,gt=1"`
	MaxPrice      float64 `mapstructure:"max_price" validate:"required,gt=1"`
	MinConfidence float64 `mapstructure:"min_confidence" validate:"required,gt=0,lt=1"`
}

// ParlayConfig holds the parlay composition constraints
type ParlayConfig struct {
	MinLegs               int     `mapstructure:"min_legs" validate:"required,gte=2"`
	MaxLegs               int     `mapstructure:"max_legs" validate:"required,gte=2"`
	MinCombinedConfidence float64 `mapstructure:"min_combined_confidence" validate:"required,gt=0,lt=1"`
	StakeFraction         float64 `mapstructure:"stake_fraction" validate:"required,gt=0,lt=1"`
	MaxParlays            int     `mapstructure:"max_parlays" validate:"required,gt=0"`
}

// ScheduleConfig represents the update/settlement cadence
type ScheduleConfig struct {
	UpdateCron                string `mapstructure:"update_cron" validate:"required"`
	SettlementIntervalMinutes int    `mapstructure:"settlement_interval_minutes" validate:"required,gt=0"`
	RunOnStart                bool   `mapstructure:"run_on_start"`
}

// APIConfig represents the HTTP query surface configuration
type APIConfig struct {
	Port            int  `mapstructure:"port" validate:"required,min=1,max=65535"`
	StreamEnabled   bool `mapstructure:"stream_enabled"`
	ShutdownSeconds int  `mapstructure:"shutdown_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UseMockSources reports whether the mock data provider should serve odds,
// stats and outcomes. Selecting the provider here keeps the fallback out of
// the scoring and composition logic entirely.
func (c *Config) UseMockSources() bool {
	return c.DataSources.Provider == "mock" || c.DataSources.OddsAPIKey == ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
