// Package format renders amounts and exchange rates for display.
package format

import (
	"math"
	"strings"

	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount returns a currency string with the currency symbol and the
// separators of the currency's locale (e.g., "฿1,234.50", "-$3.20").
func Amount(amount float64, code currency.Code) string {
	details := code.Details()
	formatted := formatPositive(math.Abs(amount), details.Locale)
	if amount < 0 && formatted != zeroAmount() {
		return "-" + details.Symbol + formatted
	}
	return details.Symbol + formatted
}

// NumericAmount returns the locale-formatted amount without a currency symbol (e.g., "-1,234.56").
func NumericAmount(amount float64, code currency.Code) string {
	formatted := formatPositive(math.Abs(amount), code.Details().Locale)
	if amount < 0 && formatted != zeroAmount() {
		return "-" + formatted
	}
	return formatted
}

// Rate returns an exchange rate with at most five fraction digits and no
// trailing zeros (e.g., "2.9", "0.01103").
func Rate(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "0"
	}
	return decimal.NewFromFloat(rate).Round(constants.RateFractionDigits).String()
}

// Plain returns an amount rounded to display precision without separators,
// suitable for machine-readable output (e.g., "1234.50").
func Plain(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(amount).StringFixed(constants.AmountFractionDigits)
}

func formatPositive(value float64, locale string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return zeroAmount()
	}
	rounded, _ := decimal.NewFromFloat(value).Round(constants.AmountFractionDigits).Float64()

	tag := language.English
	if strings.TrimSpace(locale) != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	p := message.NewPrinter(tag)
	return p.Sprintf("%.2f", rounded)
}

func zeroAmount() string {
	return "0.00"
}
