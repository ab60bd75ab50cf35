// Package output provides utilities for formatting and displaying conversion results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/format"
)

// Write renders view to w in the named output format.
func Write(w io.Writer, outputFormat string, view calculator.View) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, view)
	case constants.OutputFormatCSV:
		return CsvFormat(w, view)
	case constants.OutputFormatJSON:
		return JSONFormat(w, view)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, view calculator.View) error {
	details := view.Currency.Details()
	if view.Error != "" {
		if _, err := fmt.Fprintf(w, "Error: %s\n", view.Error); err != nil {
			return err
		}
	}
	if len(view.Rows) > 0 {
		if _, err := fmt.Fprintf(w, "--- %s %s (%s) ---\n", view.Converted, details.Code, details.Name); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
		fmt.Fprintf(tw, "Currency\t| Amount\t| Rate\n")
		fmt.Fprintf(tw, "________\t| ______\t| ____\n")
		for _, row := range view.Rows {
			fmt.Fprintf(tw, "%s\t| %s\t| %s\n", row.Code, row.FormattedAmount, row.FormattedRate)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else if view.Error == "" && view.Hint != "" {
		if _, err := fmt.Fprintf(w, "%s\n", view.Hint); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Current Base: %s\n", view.BaseLine)
	return err
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, view calculator.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "name", "amount", "rate"}); err != nil {
		return err
	}
	for _, row := range view.Rows {
		record := []string{row.Code.String(), row.Name, format.Plain(row.Amount), format.Rate(row.Rate)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the view as indented JSON.
func JSONFormat(w io.Writer, view calculator.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
