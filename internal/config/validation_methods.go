// Package config provides configuration validation
// with comprehensive error reporting.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}

	return fmt.Sprintf("configuration validation failed: %s", strings.Join(messages, "; "))
}

// Has checks if ValidationErrors contains any errors
func (ve ValidationErrors) Has() bool {
	return len(ve) > 0
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var validationErrors ValidationErrors

	if err := c.validateServer(); err != nil {
		validationErrors = append(validationErrors, err...)
	}

	if err := c.validateFeed(); err != nil {
		validationErrors = append(validationErrors, err...)
	}

	if err := c.validateAI(); err != nil {
		validationErrors = append(validationErrors, err...)
	}

	if err := c.validateLikes(); err != nil {
		validationErrors = append(validationErrors, err...)
	}

	if err := c.validateBackfill(); err != nil {
		validationErrors = append(validationErrors, err...)
	}

	if c.Logging != nil {
		if err := c.validateLogging(); err != nil {
			validationErrors = append(validationErrors, err...)
		}
	}

	if c.Server != nil {
		if err := c.validateServerTimeouts(); err != nil {
			validationErrors = append(validationErrors, err...)
		}
	}

	if validationErrors.Has() {
		return validationErrors
	}

	return nil
}

func (c *Config) validateServer() ValidationErrors {
	var errors ValidationErrors

	if c.Port == "" {
		errors = append(errors, ValidationError{
			Field:   "port",
			Value:   c.Port,
			Message: "port cannot be empty",
		})
	} else {
		if port, err := strconv.Atoi(c.Port); err != nil {
			errors = append(errors, ValidationError{
				Field:   "port",
				Value:   c.Port,
				Message: "port must be a valid integer",
			})
		} else if port < 1 || port > 65535 {
			errors = append(errors, ValidationError{
				Field:   "port",
				Value:   c.Port,
				Message: "port must be between 1 and 65535",
			})
		}
	}

	if c.Environment != "" {
		validEnvs := []string{"development", "production", "test", "staging"}
		isValid := false
		for _, validEnv := range validEnvs {
			if c.Environment == validEnv {
				isValid = true
				break
			}
		}
		if !isValid {
			errors = append(errors, ValidationError{
				Field:   "environment",
				Value:   c.Environment,
				Message: "environment must be one of: development, production, test, staging",
			})
		}
	}

	return errors
}

func (c *Config) validateFeed() ValidationErrors {
	var errors ValidationErrors

	if c.Feed.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "feed.base_url",
			Value:   c.Feed.BaseURL,
			Message: "feed base URL cannot be empty",
		})
	} else if u, err := url.Parse(c.Feed.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "feed.base_url",
			Value:   c.Feed.BaseURL,
			Message: "feed base URL must be a valid absolute URL",
		})
	}

	if c.Feed.PageSize < 1 || c.Feed.PageSize > 100 {
		errors = append(errors, ValidationError{
			Field:   "feed.page_size",
			Value:   c.Feed.PageSize,
			Message: "feed page size must be between 1 and 100",
		})
	}

	if c.Feed.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "feed.timeout",
			Value:   c.Feed.Timeout,
			Message: "feed timeout must be positive",
		})
	}

	return errors
}

func (c *Config) validateAI() ValidationErrors {
	var errors ValidationErrors

	if !c.AI.Enabled {
		return errors
	}

	if c.AI.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "ai.model",
			Value:   c.AI.Model,
			Message: "ai model cannot be empty when ai is enabled",
		})
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "ai.temperature",
			Value:   c.AI.Temperature,
			Message: "ai temperature must be between 0 and 2",
		})
	}

	// The API key is allowed to be empty at load time: backfill reports an
	// initialization failure on first use instead of blocking startup.

	return errors
}

func (c *Config) validateLikes() ValidationErrors {
	var errors ValidationErrors

	if !c.Likes.Enabled {
		return errors
	}

	if c.Likes.Address == "" {
		errors = append(errors, ValidationError{
			Field:   "likes.address",
			Value:   c.Likes.Address,
			Message: "likes redis address cannot be empty when enabled",
		})
	}

	if c.Likes.Database < 0 || c.Likes.Database > 15 {
		errors = append(errors, ValidationError{
			Field:   "likes.database",
			Value:   c.Likes.Database,
			Message: "likes redis database must be between 0 and 15",
		})
	}

	return errors
}

func (c *Config) validateBackfill() ValidationErrors {
	var errors ValidationErrors

	if c.Backfill.Workers < 1 || c.Backfill.Workers > 32 {
		errors = append(errors, ValidationError{
			Field:   "backfill.workers",
			Value:   c.Backfill.Workers,
			Message: "backfill workers must be between 1 and 32",
		})
	}

	if c.Backfill.ImageTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "backfill.image_timeout",
			Value:   c.Backfill.ImageTimeout,
			Message: "backfill image timeout must be positive",
		})
	}

	if c.Backfill.MaxImageDimension < 0 {
		errors = append(errors, ValidationError{
			Field:   "backfill.max_image_dimension",
			Value:   c.Backfill.MaxImageDimension,
			Message: "backfill max image dimension cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := []string{"debug", "info", "warn", "warning", "error", "fatal", "panic"}
	isValidLevel := false
	for _, level := range validLevels {
		if c.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "log level must be one of: debug, info, warn, error, fatal, panic",
		})
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" && c.Logging.Format != "text" {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: "log format must be one of: json, console, text",
		})
	}

	return errors
}

func (c *Config) validateServerTimeouts() ValidationErrors {
	var errors ValidationErrors

	if c.Server.ReadTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.read_timeout",
			Value:   c.Server.ReadTimeout,
			Message: "read timeout must be positive",
		})
	}

	if c.Server.WriteTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.write_timeout",
			Value:   c.Server.WriteTimeout,
			Message: "write timeout must be positive",
		})
	}

	if c.Server.IdleTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.idle_timeout",
			Value:   c.Server.IdleTimeout,
			Message: "idle timeout must be positive",
		})
	}

	return errors
}
