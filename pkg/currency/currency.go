// Package currency defines the closed set of currencies the calculator
// understands along with their display details.
package currency

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a supported currency.
type Code uint8

// Supported currencies. THB is the base currency all conversions pass through.
const (
	THB Code = iota
	INR
	USD

	// numCodes must stay last.
	numCodes
)

// Count is the number of supported currencies.
const Count = int(numCodes)

// ErrUnknownCurrency is returned when a currency code is not supported.
var ErrUnknownCurrency = errors.New("unknown currency")

// Details holds display information for a currency.
type Details struct {
	Code   Code   `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Locale string `json:"locale"`
}

var details = [numCodes]Details{
	THB: {Code: THB, Name: "Thai Baht", Symbol: "฿", Locale: "th-TH"},
	INR: {Code: INR, Name: "Indian Rupee", Symbol: "₹", Locale: "en-IN"},
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", Locale: "en-US"},
}

var codeNames = [numCodes]string{
	THB: "THB",
	INR: "INR",
	USD: "USD",
}

// Codes returns every supported currency in display order.
func Codes() []Code {
	codes := make([]Code, 0, Count)
	for c := Code(0); c < numCodes; c++ {
		codes = append(codes, c)
	}
	return codes
}

// All returns the display details of every supported currency.
func All() []Details {
	out := make([]Details, 0, Count)
	for _, c := range Codes() {
		out = append(out, details[c])
	}
	return out
}

// Valid reports whether c is a supported currency.
func (c Code) Valid() bool {
	return c < numCodes
}

// IsBase reports whether c is the base currency.
func (c Code) IsBase() bool {
	return c == THB
}

// String returns the ISO 4217 code.
func (c Code) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
	return codeNames[c]
}

// Details returns the display details for c. Unsupported codes yield a zero
// Details whose Name is the code's string form.
func (c Code) Details() Details {
	if !c.Valid() {
		return Details{Code: c, Name: c.String()}
	}
	return details[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal currency %d: %w", uint8(c), ErrUnknownCurrency)
	}
	return []byte(codeNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	parsed, err := ParseCode(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCode converts a case-insensitive ISO code into a Code.
func ParseCode(s string) (Code, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range codeNames {
		if name == normalized {
			return Code(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
}
