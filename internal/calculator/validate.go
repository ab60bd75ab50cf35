// Package calculator holds the conversion core: amount validation, the rate
// table, the base-currency converter and the session reducer built on them.
package calculator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/mathutil"
)

// ErrorKind classifies a rejected amount.
type ErrorKind int

// Validation error kinds.
const (
	MissingAmount ErrorKind = iota + 1
	NotANumber
	BelowMinimum
	AboveMaximum
)

var kindNames = map[ErrorKind]string{
	MissingAmount: "MissingAmount",
	NotANumber:    "NotANumber",
	BelowMinimum:  "BelowMinimum",
	AboveMaximum:  "AboveMaximum",
}

// String returns the kind's name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Message returns the user-facing message for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case MissingAmount:
		return "Please enter an amount."
	case NotANumber:
		return "Please enter a valid number."
	case BelowMinimum:
		return fmt.Sprintf("Value cannot be less than %d.", constants.MinInputValue)
	case AboveMaximum:
		return fmt.Sprintf("Value cannot exceed %d.", constants.MaxInputValue)
	}
	return "Invalid amount."
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ValidationError reports why an amount was rejected. Two validation errors
// match under errors.Is when their kinds are equal.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func newValidationError(kind ErrorKind) *ValidationError {
	return &ValidationError{Kind: kind, Message: kind.Message()}
}

// Error implements error.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is a ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Sentinel validation errors for use with errors.Is.
var (
	ErrMissingAmount = newValidationError(MissingAmount)
	ErrNotANumber    = newValidationError(NotANumber)
	ErrBelowMinimum  = newValidationError(BelowMinimum)
	ErrAboveMaximum  = newValidationError(AboveMaximum)
)

// Validate checks a parsed amount against the inclusive input bounds.
func Validate(amount float64) error {
	if !mathutil.IsFinite(amount) {
		return ErrNotANumber
	}
	if amount < constants.MinInputValue {
		return ErrBelowMinimum
	}
	if amount > constants.MaxInputValue {
		return ErrAboveMaximum
	}
	return nil
}

// ParseAmount parses free-text input as a decimal number. Blank input is
// reported as a missing amount rather than as not-a-number.
func ParseAmount(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, ErrMissingAmount
	}
	value, ok := parseDecimal(trimmed)
	if !ok {
		return 0, ErrNotANumber
	}
	return value, nil
}

// decimalPattern matches plain decimal notation with an optional exponent.
// Hex floats, underscores and NaN/Inf spellings are not numbers here.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseDecimal parses s when it is written in decimal notation.
func parseDecimal(s string) (float64, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ValidateInput parses and validates free-text input in one step.
func ValidateInput(raw string) (float64, error) {
	value, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	if err := Validate(value); err != nil {
		return 0, err
	}
	return value, nil
}

// SanitizeAmountInput keeps the digits and the first decimal point of raw,
// mirroring what an amount field accepts.
func SanitizeAmountInput(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	seenPoint := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenPoint:
			seenPoint = true
			b.WriteRune(r)
		}
	}
	return b.String()
}
