// Package config provides configuration management for the Sharpline service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables override file values (SHARPLINE_SELECTOR_MIN_PRICE etc.)
	v.SetEnvPrefix("SHARPLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields. The defaults mirror the documented engine tunables so a minimal
// config file is enough for development.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SHARPLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sharpline")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sharpline")
	v.SetDefault("database.user", "sharpline")
	v.SetDefault("database.password", "sharpline")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("data_sources.provider", "mock")
	v.SetDefault("data_sources.sports", []string{"basketball_nba", "soccer_epl"})
	v.SetDefault("data_sources.odds_api_url", "https://api.the-odds-api.com")
	v.SetDefault("data_sources.request_timeout_seconds", 10)
	v.SetDefault("data_sources.rate_limit_per_second", 5.0)
	v.SetDefault("data_sources.stats_cache_ttl_seconds", 3600)

	v.SetDefault("scoring.margin_scale", 0.1)
	v.SetDefault("scoring.margin_cap", 0.30)
	v.SetDefault("scoring.hit_rate_weight", 0.25)
	v.SetDefault("scoring.recent_form_weight", 0.30)
	v.SetDefault("scoring.consistency_weight", 0.15)
	v.SetDefault("scoring.ceiling", 0.99)
	v.SetDefault("scoring.recent_window", 5)
	v.SetDefault("scoring.min_sample_size", 10)
	v.SetDefault("scoring.home_advantage", 0.05)

	v.SetDefault("selector.min_price", 1.01)
	v.SetDefault("selector.max_price", 1.50)
	v.SetDefault("selector.min_confidence", 0.65)

	v.SetDefault("parlay.min_legs", 2)
	v.SetDefault("parlay.max_legs", 5)
	v.SetDefault("parlay.min_combined_confidence", 0.40)
	v.SetDefault("parlay.stake_fraction", 0.02)
	v.SetDefault("parlay.max_parlays", 5)

	v.SetDefault("schedule.update_cron", "0 6 * * *")
	v.SetDefault("schedule.settlement_interval_minutes", 120)
	v.SetDefault("schedule.run_on_start", true)

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.stream_enabled", true)
	v.SetDefault("api.shutdown_seconds", 15)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
