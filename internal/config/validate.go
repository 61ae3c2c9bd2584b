package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/randomizedcoder/go-perf-sweep/internal/experiment"
	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// MaxPeriod is the longest period whose slot still fits in a time.Duration.
const MaxPeriod = time.Duration(math.MaxInt64) - supervisor.MinSlotWarmUp

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// At least one topic, all whitelisted
	if len(cfg.Topics) == 0 {
		errs = append(errs, ValidationError{
			Field:   "topics",
			Message: "at least one topic is required",
		})
	}
	for _, t := range cfg.Topics {
		if _, err := experiment.ParseTopic(t); err != nil {
			errs = append(errs, ValidationError{
				Field:   "topics",
				Message: fmt.Sprintf("%v (valid: %s)", err, strings.Join(topicNames(), ", ")),
			})
		}
	}

	errs = append(errs, validateList("rates", cfg.Rates, 1)...)
	errs = append(errs, validateList("publishers", cfg.Publishers, 1)...)
	errs = append(errs, validateList("subscribers", cfg.Subscribers, 0)...)

	// Period must be positive and leave room for the warm-up
	switch {
	case cfg.Period <= 0:
		errs = append(errs, ValidationError{
			Field:   "period",
			Message: fmt.Sprintf("must be positive (got %v)", cfg.Period),
		})
	case cfg.Period > MaxPeriod:
		errs = append(errs, ValidationError{
			Field:   "period",
			Message: fmt.Sprintf("must be at most %v (got %v)", MaxPeriod, cfg.Period),
		})
	}

	if cfg.Limit < 0 {
		errs = append(errs, ValidationError{
			Field:   "limit",
			Message: "must be >= 0",
		})
	}

	if strings.TrimSpace(cfg.Benchmark) == "" {
		errs = append(errs, ValidationError{
			Field:   "benchmark",
			Message: "benchmark command is required",
		})
	}

	// Sampler command is needed only when sampling
	if cfg.SystemStats && strings.TrimSpace(cfg.Sampler) == "" {
		errs = append(errs, ValidationError{
			Field:   "sampler",
			Message: "-system-stats requires a sampler command",
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateList requires a non-empty list whose values are all >= min.
func validateList(field string, values []int, min int) []error {
	if len(values) == 0 {
		return []error{ValidationError{
			Field:   field,
			Message: "at least one value is required",
		}}
	}
	var errs []error
	for _, v := range values {
		if v < min {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must be >= %d (got %d)", min, v),
			})
		}
	}
	return errs
}

func topicNames() []string {
	names := make([]string, len(experiment.ValidTopics))
	for i, t := range experiment.ValidTopics {
		names[i] = string(t)
	}
	return names
}

// ApplyCheckMode modifies config for --check mode.
func ApplyCheckMode(cfg *Config) {
	cfg.Limit = 1
	cfg.Period = 10 * time.Second
	cfg.Verbose = true
}
