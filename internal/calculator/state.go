package calculator

import (
	"errors"
	"fmt"

	"github.com/iwvelando/currency-calculator/pkg/currency"
)

// State is everything one calculator session knows. Actions are methods
// with value receivers that return the next state; a State is never
// modified in place.
type State struct {
	// Amount is the text currently in the amount field.
	Amount string
	// Currency is the currency Amount is entered in.
	Currency currency.Code
	// Rates is the rate table in effect.
	Rates RateTable
	// Defaults is the table Reset restores.
	Defaults RateTable
	// Pending holds the rate override fields.
	Pending PendingRates
	// Result is the last successful conversion, nil when absent.
	Result *Result
	// Converted is the validated amount Result was computed from.
	Converted float64
	// Err is the pending validation error, nil when none.
	Err *ValidationError
	// SettingsOpen tracks whether the rate settings panel is shown.
	SettingsOpen bool
}

// NewState returns a fresh session using defaults as its rate table. A zero
// table falls back to DefaultRates.
func NewState(defaults RateTable) State {
	if defaults.IsZero() {
		defaults = DefaultRates()
	}
	return State{
		Currency: currency.THB,
		Rates:    defaults,
		Defaults: defaults,
		Pending:  defaults.Pending(),
	}
}

// SetAmount replaces the amount field with the sanitised form of raw.
func (s State) SetAmount(raw string) State {
	s.Amount = SanitizeAmountInput(raw)
	return s
}

// SelectCurrency changes the source currency and discards any result.
// Unsupported codes leave the state unchanged.
func (s State) SelectCurrency(code currency.Code) State {
	if !code.Valid() {
		return s
	}
	s.Currency = code
	s.Result = nil
	return s
}

// Calculate validates the amount field and, on success, converts it with
// the current rate table. On failure the error replaces any previous one
// and the result is cleared.
func (s State) Calculate() State {
	s.Err = nil
	value, err := ValidateInput(s.Amount)
	if err != nil {
		s.Err = asValidationError(err)
		s.Result = nil
		return s
	}
	result := Convert(value, s.Rates, s.Currency)
	s.Result = &result
	s.Converted = value
	return s
}

// SetPendingRate edits the override field for code.
func (s State) SetPendingRate(code currency.Code, raw string) State {
	s.Pending = s.Pending.With(code, raw)
	return s
}

// ApplyRates replaces the rate table with the pending overrides. When any
// override cannot be used the state is returned unchanged together with the
// reason; the reason is for logging and never becomes a user-facing error.
// An existing result is recomputed with the new table unless a validation
// error is pending.
func (s State) ApplyRates() (State, error) {
	table, err := ParseRateTable(s.Pending)
	if err != nil {
		return s, fmt.Errorf("apply rates: %w", err)
	}
	s.Rates = table
	if s.Result != nil && s.Err == nil {
		result := Convert(s.Converted, table, s.Currency)
		s.Result = &result
	}
	return s, nil
}

// Reset restores the default rate table and clears the amount, the error,
// the result and the overrides. The settings panel keeps its visibility.
func (s State) Reset() State {
	next := NewState(s.Defaults)
	next.SettingsOpen = s.SettingsOpen
	return next
}

// ToggleSettings flips the visibility of the rate settings panel.
func (s State) ToggleSettings() State {
	s.SettingsOpen = !s.SettingsOpen
	return s
}

// HasResult reports whether a conversion result is present.
func (s State) HasResult() bool {
	return s.Result != nil
}

func asValidationError(err error) *ValidationError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return newValidationError(NotANumber)
}
