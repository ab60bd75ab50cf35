// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"
)

// ValidateRate checks that a configured multiplier can be used as a rate.
// It returns a warning naming the fallback, or "" when the rate is usable.
func ValidateRate(name string, rate, fallback float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Sprintf("Rate for %s must be a positive number, got %v - using default %v",
			name, rate, fallback)
	}
	return ""
}

// ValidateLoggingFormat checks the configured log encoding.
func ValidateLoggingFormat(format string) string {
	switch format {
	case "", "json", "console":
		return ""
	}
	return fmt.Sprintf("Unknown logging format '%s'", format)
}

// RateConfig is one configured rate and the value used in its place when
// it is rejected.
type RateConfig struct {
	Name     string
	Rate     float64
	Fallback float64
}

// ConfigValidator collects warnings for a whole configuration.
type ConfigValidator struct {
	Rates         []RateConfig
	LoggingFormat string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, rate := range cv.Rates {
		if warning := ValidateRate(rate.Name, rate.Rate, rate.Fallback); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	if warning := ValidateLoggingFormat(cv.LoggingFormat); warning != "" {
		warnings = append(warnings, warning)
	}

	return warnings
}
