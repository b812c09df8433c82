package config

import (
	"fmt"
	"strconv"
	"strings"

	errs "lead-dedup-service/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// ConfigValidator collects validation errors across checks
type ConfigValidator struct {
	errors []ValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ValidationError, 0)}
}

func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

func (cv *ConfigValidator) GetErrors() []ValidationError {
	return cv.errors
}

func (cv *ConfigValidator) GetErrorsAsString() string {
	var errorStrings []string
	for _, err := range cv.errors {
		errorStrings = append(errorStrings, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()

	c.validateRequired(validator)
	c.validateFormats(validator)
	c.validateRanges(validator)

	if validator.HasErrors() {
		return errs.NewValidation("config.Validate", fmt.Sprintf("configuration validation failed:\n%s", validator.GetErrorsAsString()), nil)
	}

	return nil
}

func (c *Config) validateRequired(validator *ConfigValidator) {
	if c.DatabaseURL == "" {
		validator.AddError("DATABASE_URL", c.DatabaseURL, "database URL is required")
	}
	if c.Port == "" {
		validator.AddError("PORT", c.Port, "port is required")
	}
}

func (c *Config) validateFormats(validator *ConfigValidator) {
	if c.DatabaseURL != "" {
		if !strings.Contains(c.DatabaseURL, "@") || !strings.Contains(c.DatabaseURL, "/") {
			validator.AddError("DATABASE_URL", c.DatabaseURL, "invalid database URL format")
		}
	}

	validatePort := func(field, value string) {
		if value == "" {
			return
		}
		if port, err := strconv.Atoi(value); err != nil || port < 1 || port > 65535 {
			validator.AddError(field, value, "invalid port number (must be 1-65535)")
		}
	}
	validatePort("PORT", c.Port)
	validatePort("HEALTH_CHECK_PORT", c.HealthCheckPort)
	validatePort("PROFILING_PORT", c.ProfilingPort)

	switch c.LogFormat {
	case "json", "text":
	default:
		validator.AddError("LOG_FORMAT", c.LogFormat, "log format must be 'json' or 'text'")
	}

	switch c.Env {
	case "development", "staging", "production":
	default:
		validator.AddError("ENV", c.Env, "environment must be development, staging or production")
	}
}

func (c *Config) validateRanges(validator *ConfigValidator) {
	if c.MatchThreshold < 1 || c.MatchThreshold > 400 {
		validator.AddError("MATCH_THRESHOLD", strconv.Itoa(c.MatchThreshold), "match threshold must be between 1 and 400")
	}
	if c.DBMaxOpenConns < 1 {
		validator.AddError("DB_MAX_OPEN_CONNS", strconv.Itoa(c.DBMaxOpenConns), "must be at least 1")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		validator.AddError("DB_MAX_IDLE_CONNS", strconv.Itoa(c.DBMaxIdleConns), "must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if c.DBReadTimeout <= 0 {
		validator.AddError("DB_READ_TIMEOUT", c.DBReadTimeout.String(), "must be a positive duration")
	}
	if c.DBWriteTimeout <= 0 {
		validator.AddError("DB_WRITE_TIMEOUT", c.DBWriteTimeout.String(), "must be a positive duration")
	}
	if c.ScanTimeout <= 0 {
		validator.AddError("SCAN_TIMEOUT", c.ScanTimeout.String(), "must be a positive duration")
	}
	if c.ConfigReloadIntervalSeconds < 1 {
		validator.AddError("CONFIG_RELOAD_INTERVAL_SECONDS", strconv.Itoa(c.ConfigReloadIntervalSeconds), "must be at least 1 second")
	}
}
