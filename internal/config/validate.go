package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// ValidationError represents a specific invalid configuration value.
type ValidationError struct {
	// Field is the YAML field path that failed validation (e.g., "sampler.jitter").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// Validate checks every field and returns the list of problems (empty
// list = valid configuration).
//
// Checks performed:
//   - enumerations: sampler kind, limit mode, radius strategy, selection
//     mode and component policy must name a known value
//   - ranges: jitter in [0, 1], non-negative height jitter and workers
//   - strategy parameters: the fixed strategy needs a positive radius, the
//     mean-height strategy a positive divisor; a negative fixed radius is
//     rejected regardless of the strategy
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Check 1: Enumerations.
	if _, err := model.ParseSamplerKind(c.Sampler.Kind); err != nil {
		add("sampler.kind", "%v", err)
	}
	if _, err := model.ParseLimitMode(c.Sampler.LimitMode); err != nil {
		add("sampler.limitMode", "%v", err)
	}
	strategy, err := model.ParseRadiusStrategy(c.Radius.Strategy)
	if err != nil {
		add("radius.strategy", "%v", err)
	}
	if _, err := model.ParseSelectionMode(c.Selection); err != nil {
		add("selection", "%v", err)
	}
	if _, err := model.ParseComponentPolicy(c.Components); err != nil {
		add("components", "%v", err)
	}

	// Check 2: Numeric ranges.
	if !(c.Sampler.Jitter >= 0 && c.Sampler.Jitter <= 1) {
		add("sampler.jitter", "must be within [0, 1], got %g", c.Sampler.Jitter)
	}
	if c.Sampler.PoissonAttempts < 0 {
		add("sampler.poissonAttempts", "must not be negative, got %d", c.Sampler.PoissonAttempts)
	}
	if c.HeightJitter < 0 || math.IsNaN(c.HeightJitter) {
		add("heightJitter", "must not be negative, got %g", c.HeightJitter)
	}
	if c.Workers < 0 {
		add("workers", "must not be negative, got %d", c.Workers)
	}

	// Check 3: Strategy parameters.
	if c.Radius.Fixed < 0 || math.IsNaN(c.Radius.Fixed) || math.IsInf(c.Radius.Fixed, 0) {
		add("radius.fixed", "must be a non-negative finite radius, got %g", c.Radius.Fixed)
	} else if strategy == model.RadiusFixed && c.Radius.Fixed == 0 {
		add("radius.fixed", "fixed strategy needs a positive radius")
	}
	if strategy == model.RadiusMeanHeight && !(c.Radius.Divisor > 0) {
		add("radius.divisor", "mean-height strategy needs a positive divisor, got %g", c.Radius.Divisor)
	}

	return errs
}

// Err folds the validation result into a single CLIError with
// ExitConfigError, or nil when the configuration is valid.
func (c *Config) Err() error {
	verrs := c.Validate()
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	joined := make([]error, len(verrs))
	for i := range verrs {
		msgs[i] = verrs[i].Field + ": " + verrs[i].Message
		joined[i] = &verrs[i]
	}
	return model.WrapCLIError(model.ExitConfigError,
		"invalid configuration ("+strings.Join(msgs, "; ")+")", errors.Join(joined...))
}
