// Package config provides configuration management for the Sharpline service.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/sharpline/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration. Any failure wraps
// models.ErrInvalidConfiguration so callers can reject the run before it
// starts.
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidConfiguration, err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations of threshold ordering
// and heuristic weight bounds
func validateCrossField(cfg *Config) error {
	if cfg.Selector.MinPrice > cfg.Selector.MaxPrice {
		return fmt.Errorf("%w: selector min_price %.2f exceeds max_price %.2f",
			models.ErrInvalidConfiguration, cfg.Selector.MinPrice, cfg.Selector.MaxPrice)
	}

	if cfg.Parlay.MinLegs > cfg.Parlay.MaxLegs {
		return fmt.Errorf("%w: parlay min_legs %d exceeds max_legs %d",
			models.ErrInvalidConfiguration, cfg.Parlay.MinLegs, cfg.Parlay.MaxLegs)
	}

	// The four contribution caps must be able to reach the ceiling, otherwise
	// the documented saturation behavior (full signals score the ceiling) is
	// unreachable.
	capSum := cfg.Scoring.MarginCap + cfg.Scoring.HitRateWeight +
		cfg.Scoring.RecentFormWeight + cfg.Scoring.ConsistencyWeight
	if capSum < cfg.Scoring.Ceiling {
		return fmt.Errorf("%w: scoring contribution caps sum to %.2f, below ceiling %.2f",
			models.ErrInvalidConfiguration, capSum, cfg.Scoring.Ceiling)
	}

	if cfg.Scoring.RecentWindow > cfg.Scoring.MinSampleSize {
		return fmt.Errorf("%w: scoring recent_window %d exceeds min_sample_size %d",
			models.ErrInvalidConfiguration, cfg.Scoring.RecentWindow, cfg.Scoring.MinSampleSize)
	}

	if _, err := cron.ParseStandard(cfg.Schedule.UpdateCron); err != nil {
		return fmt.Errorf("%w: invalid update_cron %q: %v",
			models.ErrInvalidConfiguration, cfg.Schedule.UpdateCron, err)
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("%w: max_idle_connections cannot exceed max_connections",
			models.ErrInvalidConfiguration)
	}

	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("%w: production environment requires SSL mode 'require' or 'verify-full'",
			models.ErrInvalidConfiguration)
	}

	if cfg.DataSources.Provider == "oddsapi" && cfg.DataSources.OddsAPIKey == "" {
		return fmt.Errorf("%w: odds_api_key is required when provider is oddsapi",
			models.ErrInvalidConfiguration)
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("%w:\n%s", models.ErrInvalidConfiguration, errMsg)
}
