// Package constants provides shared constants for the currency-calculator application.
package constants

import "time"

// Input bounds, inclusive on both ends.
const (
	// MinInputValue is the smallest amount accepted for conversion
	MinInputValue = 0

	// MaxInputValue is the largest amount accepted for conversion
	MaxInputValue = 99999
)

// Default rate table, expressed as multipliers from the base currency (THB).
const (
	// DefaultINRRate is the default number of Indian Rupees per Thai Baht
	DefaultINRRate = 2.9

	// DefaultUSDRate is the default number of US Dollars per Thai Baht
	DefaultUSDRate = 0.032
)

// Display precision
const (
	// AmountFractionDigits is the number of fraction digits shown for amounts
	AmountFractionDigits = 2

	// RateFractionDigits is the maximum number of fraction digits shown for rates
	RateFractionDigits = 5

	// RateTolerance is the tolerance used when comparing computed rates
	RateTolerance = 1e-9
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "CURRENCY_CALCULATOR"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultSessionTTL is how long an idle calculator session is kept
	DefaultSessionTTL = 30 * time.Minute

	// DefaultMaxSessions bounds the number of sessions held in memory
	DefaultMaxSessions int64 = 10000

	// DefaultShutdownTimeout bounds graceful server shutdown
	DefaultShutdownTimeout = 10 * time.Second
)
