// Package repl runs an interactive calculator session over a line-oriented
// reader and writer.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/output"
	"go.uber.org/zap"
)

const helpText = `Commands:
  amount <value>        set the amount
  currency <THB|INR|USD> select the currency the amount is in
  calc                  convert the amount
  rate <INR|USD> <value> edit a rate override
  apply                 apply the rate overrides
  reset                 restore defaults
  settings              show or hide the rate settings
  show                  display the current state
  help                  show this help
  quit                  leave
`

// Session drives one calculator State from text commands.
type Session struct {
	state  calculator.State
	out    io.Writer
	logger *zap.Logger
}

// New returns a session starting from a fresh state with the given defaults.
func New(defaults calculator.RateTable, out io.Writer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		state:  calculator.NewState(defaults),
		out:    out,
		logger: logger,
	}
}

// State returns the current state.
func (s *Session) State() calculator.State {
	return s.state
}

// Run reads commands from in until EOF or quit.
func (s *Session) Run(in io.Reader) error {
	fmt.Fprint(s.out, helpText)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		if quit := s.Execute(scanner.Text()); quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read command: %w", err)
	}
	return nil
}

// Execute runs one command line and reports whether the session should end.
func (s *Session) Execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(s.out, helpText)
		return false
	case "amount":
		s.state = s.state.SetAmount(strings.Join(args, ""))
		fmt.Fprintf(s.out, "Amount: %s%s\n", s.state.Currency.Details().Symbol, s.state.Amount)
		return false
	case "currency":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: currency <THB|INR|USD>")
			return false
		}
		code, err := currency.ParseCode(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Unknown currency %q\n", args[0])
			return false
		}
		s.state = s.state.SelectCurrency(code)
		fmt.Fprintf(s.out, "Currency: %s (%s)\n", code, code.Details().Name)
		return false
	case "calc", "calculate":
		s.state = s.state.Calculate()
		s.logger.Debug("calculated",
			zap.String("op", "repl.calculate"),
			zap.String("amount", s.state.Amount),
			zap.Stringer("currency", s.state.Currency),
			zap.Bool("result", s.state.HasResult()),
		)
	case "rate":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: rate <INR|USD> <value>")
			return false
		}
		code, err := currency.ParseCode(args[0])
		if err != nil || code.IsBase() {
			fmt.Fprintf(s.out, "No rate override for %q\n", args[0])
			return false
		}
		s.state = s.state.SetPendingRate(code, args[1])
		fmt.Fprintf(s.out, "Pending %s rate: %s\n", code, args[1])
		return false
	case "apply":
		next, err := s.state.ApplyRates()
		if err != nil {
			s.logger.Debug("rate overrides ignored",
				zap.String("op", "repl.apply"),
				zap.Error(err),
			)
		}
		s.state = next
	case "reset":
		s.state = s.state.Reset()
	case "settings":
		s.state = s.state.ToggleSettings()
		s.printSettings()
		return false
	case "show":
	default:
		fmt.Fprintf(s.out, "Unknown command %q, type help for a list of commands\n", command)
		return false
	}

	s.render()
	return false
}

func (s *Session) render() {
	if err := output.PrettyFormat(s.out, s.state.View()); err != nil {
		s.logger.Warn("failed to render view",
			zap.String("op", "repl.render"),
			zap.Error(err),
		)
	}
	if s.state.SettingsOpen {
		s.printSettings()
	}
}

func (s *Session) printSettings() {
	if !s.state.SettingsOpen {
		fmt.Fprintln(s.out, "Rate settings hidden")
		return
	}
	fmt.Fprintln(s.out, "Rate settings:")
	for _, code := range currency.Codes() {
		if code.IsBase() {
			continue
		}
		fmt.Fprintf(s.out, "  THB to %s: %s\n", code, s.state.Pending.Get(code))
	}
}
