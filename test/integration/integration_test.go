package integration

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/internal/config"
	"github.com/iwvelando/currency-calculator/internal/repl"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/output"
	"github.com/iwvelando/currency-calculator/pkg/testutil"
	"go.uber.org/zap"
)

func newSession(t *testing.T, out *bytes.Buffer) *repl.Session {
	t.Helper()
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Fatalf("unexpected configuration warnings: %v", warnings)
	}
	return repl.New(conf.DefaultRates(), out, zap.NewNop())
}

// TestMainIntegrationBaseline converts from each currency through the
// interactive session exactly as the command does.
func TestMainIntegrationBaseline(t *testing.T) {
	baselineChecks := []struct {
		source   currency.Code
		expected map[currency.Code]float64
	}{
		{currency.THB, map[currency.Code]float64{currency.THB: 100, currency.INR: 290, currency.USD: 3.2}},
		{currency.INR, map[currency.Code]float64{currency.THB: 34.483, currency.INR: 100, currency.USD: 1.103}},
		{currency.USD, map[currency.Code]float64{currency.THB: 3125, currency.INR: 9062.5, currency.USD: 100}},
	}

	for _, check := range baselineChecks {
		t.Run(check.source.String(), func(t *testing.T) {
			var out bytes.Buffer
			session := newSession(t, &out)
			testutil.RunScript(session.Execute, "currency "+check.source.String(), "amount 100", "calc")

			state := session.State()
			if !state.HasResult() {
				t.Fatalf("expected a result, got error %v", state.Err)
			}
			for code, expected := range check.expected {
				actual := state.Result.Amount(code)
				if math.Abs(actual-expected) > 0.001 {
					t.Errorf("%s from %s: expected %.3f, got %.3f", code, check.source, expected, actual)
				}
			}
			if state.Result.Amount(check.source) != 100 {
				t.Errorf("expected source amount to be exactly 100, got %v", state.Result.Amount(check.source))
			}

			view := state.View()
			if testutil.FindRow(view.Rows, check.source) != nil {
				t.Errorf("expected the source currency to be excluded from the display")
			}
			if len(view.Rows) != currency.Count-1 {
				t.Errorf("expected %d rows, got %d", currency.Count-1, len(view.Rows))
			}
		})
	}
}

// TestCSVOutputFormat tests that CSV output matches the baseline file
func TestCSVOutputFormat(t *testing.T) {
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	state := calculator.NewState(conf.DefaultRates()).SetAmount("100").Calculate()

	var buf bytes.Buffer
	if err := output.Write(&buf, conf.Output.Format, state.View()); err != nil {
		t.Fatalf("output.Write() error = %v", err)
	}

	baselineFile, err := os.Open("../baseline/baseline_output.csv")
	if err != nil {
		t.Fatalf("Could not open baseline CSV file: %v", err)
	}
	defer func() {
		_ = baselineFile.Close()
	}()

	expected := bufio.NewScanner(baselineFile)
	actual := bufio.NewScanner(&buf)
	line := 0
	for expected.Scan() {
		line++
		if !actual.Scan() {
			t.Fatalf("CSV output ended before baseline line %d", line)
		}
		if actual.Text() != expected.Text() {
			t.Errorf("CSV line %d: expected %q, got %q", line, expected.Text(), actual.Text())
		}
	}
	if actual.Scan() {
		t.Errorf("CSV output has extra line %q", actual.Text())
	}
	if err := expected.Err(); err != nil {
		t.Errorf("Error reading baseline CSV: %v", err)
	}
}

// TestPrettyOutputFormat tests the pretty print output
func TestPrettyOutputFormat(t *testing.T) {
	var out bytes.Buffer
	session := newSession(t, &out)
	testutil.RunScript(session.Execute, "currency INR", "amount 100", "calc")

	text := out.String()
	for _, want := range []string{
		"Currency: INR (Indian Rupee)",
		"--- 100.00 INR (Indian Rupee) ---",
		"฿34.48",
		"0.34483",
		"$1.10",
		"0.01103",
		"Current Base: 1 THB = 2.9 INR / 0.032 USD",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("pretty output missing %q:\n%s", want, text)
		}
	}
}

// TestValidationScenarios checks that invalid amounts clear any result.
func TestValidationScenarios(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		message string
	}{
		{"empty amount", "amount", "Please enter an amount."},
		{"above maximum", "amount 100000", "Value cannot exceed 99999."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			session := newSession(t, &out)
			testutil.RunScript(session.Execute, "amount 50", "calc", tt.amount, "calc")

			state := session.State()
			if state.HasResult() {
				t.Fatal("expected the previous result to be cleared")
			}
			if state.Err == nil || state.Err.Message != tt.message {
				t.Fatalf("expected error %q, got %v", tt.message, state.Err)
			}
			if !strings.Contains(out.String(), "Error: "+tt.message) {
				t.Errorf("expected error message in output:\n%s", out.String())
			}
		})
	}
}

// TestRejectedRateUpdate checks that one unparseable override rejects the
// whole update without any visible error.
func TestRejectedRateUpdate(t *testing.T) {
	var out bytes.Buffer
	session := newSession(t, &out)
	testutil.RunScript(session.Execute, "amount 100", "calc")
	before := session.State()

	testutil.RunScript(session.Execute, "settings", "rate INR 3.0", "rate USD abc", "apply")
	after := session.State()

	if after.Rates != before.Rates {
		t.Errorf("expected rates unchanged, got %s", after.Rates)
	}
	if *after.Result != *before.Result {
		t.Errorf("expected result unchanged")
	}
	if after.Err != nil {
		t.Errorf("expected no visible error, got %v", after.Err)
	}
	if strings.Contains(out.String(), "Error:") {
		t.Errorf("expected no error output:\n%s", out.String())
	}
}

// TestAppliedRatesRecompute checks that accepted overrides recompute the
// displayed result and that reset restores the configured defaults.
func TestAppliedRatesRecompute(t *testing.T) {
	var out bytes.Buffer
	session := newSession(t, &out)
	testutil.RunScript(session.Execute, "amount 100", "calc", "rate INR 3.0", "rate USD 0.03", "apply")

	state := session.State()
	if got := state.Result.Amount(currency.INR); math.Abs(got-300) > 1e-9 {
		t.Errorf("expected 300 INR after apply, got %v", got)
	}
	if !strings.Contains(out.String(), "Current Base: 1 THB = 3 INR / 0.03 USD") {
		t.Errorf("expected updated base line:\n%s", out.String())
	}

	testutil.RunScript(session.Execute, "reset")
	state = session.State()
	if state.Rates != calculator.DefaultRates() {
		t.Errorf("expected default rates after reset, got %s", state.Rates)
	}
	if state.Amount != "" || state.HasResult() || state.Err != nil {
		t.Errorf("expected reset to clear amount, result and error, got %+v", state)
	}
}
