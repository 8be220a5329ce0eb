package profile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "profile.uclamp_min_high")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all
// validation errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.Profile.validate()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (p *Profile) validate() []ValidationError {
	var errors []ValidationError

	uclampFields := []struct {
		field string
		value int
	}{
		{"profile.uclamp_min_low", p.UclampMinLow},
		{"profile.uclamp_min_high", p.UclampMinHigh},
		{"profile.uclamp_min_init", p.UclampMinInit},
	}
	for _, f := range uclampFields {
		if f.value < boost.UclampMin || f.value > boost.UclampMax {
			errors = append(errors, ValidationError{
				Field:   f.field,
				Value:   f.value,
				Message: fmt.Sprintf("must be within [%d, %d]", boost.UclampMin, boost.UclampMax),
			})
		}
	}

	if p.UclampMinLow > p.UclampMinHigh {
		errors = append(errors, ValidationError{
			Field:   "profile.uclamp_min_low",
			Value:   p.UclampMinLow,
			Message: fmt.Sprintf("must not exceed uclamp_min_high (%d)", p.UclampMinHigh),
		})
	}

	if p.StaleTimeFactor <= 0 {
		errors = append(errors, ValidationError{
			Field:   "profile.stale_time_factor",
			Value:   p.StaleTimeFactor,
			Message: "must be positive",
		})
	}

	if p.TargetTimeFactor <= 0 {
		errors = append(errors, ValidationError{
			Field:   "profile.target_time_factor",
			Value:   p.TargetTimeFactor,
			Message: "must be positive",
		})
	}

	if p.PidIHigh < p.PidILow {
		errors = append(errors, ValidationError{
			Field:   "profile.pid_i_high",
			Value:   p.PidIHigh,
			Message: fmt.Sprintf("must not be below pid_i_low (%v)", p.PidILow),
		})
	}

	gains := []struct {
		field string
		value float64
	}{
		{"profile.pid_po", p.PidPo},
		{"profile.pid_pu", p.PidPu},
		{"profile.pid_i", p.PidI},
		{"profile.pid_do", p.PidDo},
		{"profile.pid_du", p.PidDu},
	}
	for _, g := range gains {
		if g.value < 0 {
			errors = append(errors, ValidationError{
				Field:   g.field,
				Value:   g.value,
				Message: "must not be negative",
			})
		}
	}

	return errors
}

func (c *Config) validateMetrics() []ValidationError {
	var errors []ValidationError

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "metrics.port",
			Value:   c.Metrics.Port,
			Message: "must be a valid TCP port",
		})
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		errors = append(errors, ValidationError{
			Field:   "metrics.path",
			Value:   c.Metrics.Path,
			Message: "must start with /",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
