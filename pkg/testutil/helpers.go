// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/pkg/currency"
)

// FindRow finds the display row for code in rows.
// Returns a pointer to the row if found, nil otherwise.
func FindRow(rows []calculator.Row, code currency.Code) *calculator.Row {
	for i := range rows {
		if rows[i].Code == code {
			return &rows[i]
		}
	}
	return nil
}

// RunScript feeds each line to execute in order and stops early when
// execute reports that the session ended. It returns the number of lines
// executed.
func RunScript(execute func(string) bool, lines ...string) int {
	for i, line := range lines {
		if execute(line) {
			return i + 1
		}
	}
	return len(lines)
}
