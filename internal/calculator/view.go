package calculator

import (
	"fmt"

	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/format"
)

// Row is one entry of the result display.
type Row struct {
	Code            currency.Code `json:"code"`
	Name            string        `json:"name"`
	Symbol          string        `json:"symbol"`
	Amount          float64       `json:"amount"`
	Rate            float64       `json:"rate"`
	FormattedAmount string        `json:"formattedAmount"`
	FormattedRate   string        `json:"formattedRate"`
}

// View is the display derived from a State. It is recomputed on every
// render and never stored.
type View struct {
	Amount       string        `json:"amount"`
	// Converted is the amount the rows were computed from, which can differ
	// from Amount once the field is edited after a calculation.
	Converted    string        `json:"converted,omitempty"`
	Currency     currency.Code `json:"currency"`
	Symbol       string        `json:"symbol"`
	Error        string        `json:"error,omitempty"`
	ErrorKind    string        `json:"errorKind,omitempty"`
	Hint         string        `json:"hint,omitempty"`
	Rows         []Row         `json:"rows"`
	Rates        RateTable     `json:"rates"`
	Pending      PendingRates  `json:"pending"`
	BaseLine     string        `json:"baseLine"`
	SettingsOpen bool          `json:"settingsOpen"`
}

// BuildRows renders a result as display rows in currency order. The source
// currency is included only when includeSource is set.
func BuildRows(result Result, source currency.Code, amount float64, rates RateTable, includeSource bool) []Row {
	rows := make([]Row, 0, currency.Count)
	for _, code := range currency.Codes() {
		if code == source && !includeSource {
			continue
		}
		details := code.Details()
		value := result.Amount(code)
		rate := EffectiveRate(code, source, amount, result, rates)
		rows = append(rows, Row{
			Code:            code,
			Name:            details.Name,
			Symbol:          details.Symbol,
			Amount:          value,
			Rate:            rate,
			FormattedAmount: format.Amount(value, code),
			FormattedRate:   format.Rate(rate),
		})
	}
	return rows
}

// InputHint describes the accepted amount range.
func InputHint() string {
	return fmt.Sprintf("Min: %d | Max: %d", constants.MinInputValue, constants.MaxInputValue)
}

// View derives the display for s.
func (s State) View() View {
	v := View{
		Amount:       s.Amount,
		Currency:     s.Currency,
		Symbol:       s.Currency.Details().Symbol,
		Rows:         []Row{},
		Rates:        s.Rates,
		Pending:      s.Pending,
		BaseLine:     s.Rates.String(),
		SettingsOpen: s.SettingsOpen,
	}
	if s.Err != nil {
		v.Error = s.Err.Message
		v.ErrorKind = s.Err.Kind.String()
	} else {
		v.Hint = InputHint()
	}
	if s.Result != nil {
		v.Converted = format.NumericAmount(s.Converted, s.Currency)
		v.Rows = BuildRows(*s.Result, s.Currency, s.Converted, s.Rates, false)
	}
	return v
}
