package calculator

import (
	"encoding/json"

	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/mathutil"
)

// Result holds an amount per supported currency.
type Result struct {
	amounts [currency.Count]float64
}

// Amount returns the converted amount for code.
func (r Result) Amount(code currency.Code) float64 {
	if !code.Valid() {
		return 0
	}
	return r.amounts[code]
}

// MarshalJSON encodes the amounts keyed by currency code.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, currency.Count)
	for _, code := range currency.Codes() {
		out[code.String()] = r.Amount(code)
	}
	return json.Marshal(out)
}

// Convert expresses amount, given in source, in every supported currency.
// The amount is first normalised to the base currency and then expanded
// with the table's multipliers. No rounding is applied. The entry for the
// source currency is the input amount itself.
//
// Convert trusts its caller to have validated amount; rate tables built by
// NewRateTable never contain a zero multiplier.
func Convert(amount float64, rates RateTable, source currency.Code) Result {
	base := amount / rates.Rate(source)

	var r Result
	for _, code := range currency.Codes() {
		r.amounts[code] = base * rates.Rate(code)
	}
	if source.Valid() {
		r.amounts[source] = amount
	}
	return r
}

// EffectiveRate returns the ratio shown next to target when amount was
// entered in source. With the base currency as source it is the configured
// multiplier; for the source itself it is 1; otherwise it is the ratio
// realised through the base currency, or 0 for a zero amount.
func EffectiveRate(target, source currency.Code, amount float64, result Result, rates RateTable) float64 {
	if source.IsBase() {
		return rates.Rate(target)
	}
	if source == target {
		return 1
	}
	return mathutil.SafeDivide(result.Amount(target), amount)
}
