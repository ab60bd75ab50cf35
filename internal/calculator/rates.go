package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/format"
	"github.com/iwvelando/currency-calculator/pkg/mathutil"
)

var (
	// ErrUnparseableRate is returned when a rate override is not a number.
	ErrUnparseableRate = errors.New("rate is not a number")

	// ErrInvalidRate is returned when a rate is not a positive finite number.
	ErrInvalidRate = errors.New("rate must be a positive finite number")

	// ErrMissingRate is returned when a non-base currency has no rate.
	ErrMissingRate = errors.New("rate missing")
)

// RateTable holds the multipliers from the base currency to every other
// currency. The base currency always has a multiplier of 1. RateTable is a
// value type; replacing it never affects copies held elsewhere.
type RateTable struct {
	rates [currency.Count]float64
}

// DefaultRates returns the built-in rate table.
func DefaultRates() RateTable {
	return mustRateTable(map[currency.Code]float64{
		currency.INR: constants.DefaultINRRate,
		currency.USD: constants.DefaultUSDRate,
	})
}

// NewRateTable builds a rate table from a multiplier per non-base currency.
// Every non-base currency must be present with a positive finite rate.
// A rate supplied for the base currency is ignored.
func NewRateTable(rates map[currency.Code]float64) (RateTable, error) {
	var table RateTable
	var errs []error
	for _, code := range currency.Codes() {
		if code.IsBase() {
			table.rates[code] = 1
			continue
		}
		rate, ok := rates[code]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", code, ErrMissingRate))
			continue
		}
		if !mathutil.IsFinite(rate) || rate <= 0 {
			errs = append(errs, fmt.Errorf("%s rate %v: %w", code, rate, ErrInvalidRate))
			continue
		}
		table.rates[code] = rate
	}
	if err := errors.Join(errs...); err != nil {
		return RateTable{}, err
	}
	return table, nil
}

func mustRateTable(rates map[currency.Code]float64) RateTable {
	table, err := NewRateTable(rates)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in rate table: %v", err))
	}
	return table
}

// ParseRateTable parses one override string per non-base currency into a new
// rate table. Any unparseable or invalid entry rejects the whole table.
func ParseRateTable(pending PendingRates) (RateTable, error) {
	parsed := make(map[currency.Code]float64, currency.Count)
	for _, code := range currency.Codes() {
		if code.IsBase() {
			continue
		}
		raw := strings.TrimSpace(pending.Get(code))
		value, ok := parseDecimal(raw)
		if !ok {
			return RateTable{}, fmt.Errorf("%s override %q: %w", code, raw, ErrUnparseableRate)
		}
		parsed[code] = value
	}
	return NewRateTable(parsed)
}

// Rate returns the multiplier from the base currency to code.
func (t RateTable) Rate(code currency.Code) float64 {
	if code.IsBase() {
		return 1
	}
	if !code.Valid() {
		return 0
	}
	return t.rates[code]
}

// IsZero reports whether t is the zero value rather than a built table.
func (t RateTable) IsZero() bool {
	return t == RateTable{}
}

// Pending returns the rate table's multipliers as override strings.
func (t RateTable) Pending() PendingRates {
	var p PendingRates
	for _, code := range currency.Codes() {
		if code.IsBase() {
			continue
		}
		p = p.With(code, strconv.FormatFloat(t.Rate(code), 'f', -1, 64))
	}
	return p
}

// String renders the table as "1 THB = 2.9 INR / 0.032 USD".
func (t RateTable) String() string {
	parts := make([]string, 0, currency.Count-1)
	var base currency.Code
	for _, code := range currency.Codes() {
		if code.IsBase() {
			base = code
			continue
		}
		parts = append(parts, format.Rate(t.Rate(code))+" "+code.String())
	}
	return "1 " + base.String() + " = " + strings.Join(parts, " / ")
}

// MarshalJSON encodes the non-base multipliers keyed by currency code.
func (t RateTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, currency.Count-1)
	for _, code := range currency.Codes() {
		if code.IsBase() {
			continue
		}
		out[code.String()] = t.Rate(code)
	}
	return json.Marshal(out)
}

// PendingRates holds unparsed rate overrides keyed by currency.
type PendingRates struct {
	values [currency.Count]string
}

// Get returns the override text for code.
func (p PendingRates) Get(code currency.Code) string {
	if !code.Valid() {
		return ""
	}
	return p.values[code]
}

// With returns a copy of p with the override for code replaced. Overrides
// for the base currency or unknown codes are ignored.
func (p PendingRates) With(code currency.Code, raw string) PendingRates {
	if !code.Valid() || code.IsBase() {
		return p
	}
	p.values[code] = raw
	return p
}

// MarshalJSON encodes the overrides keyed by currency code.
func (p PendingRates) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, currency.Count-1)
	for _, code := range currency.Codes() {
		if code.IsBase() {
			continue
		}
		out[code.String()] = p.Get(code)
	}
	return json.Marshal(out)
}
