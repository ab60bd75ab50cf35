package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/internal/config"
	"github.com/iwvelando/currency-calculator/internal/logging"
	"github.com/iwvelando/currency-calculator/internal/repl"
	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/output"
	"github.com/iwvelando/currency-calculator/pkg/validation"
	"go.uber.org/zap"
)

// errInvalidAmount marks a conversion whose amount failed validation. The
// message has already been rendered to the output.
var errInvalidAmount = errors.New("invalid amount")

type conversionRequest struct {
	Amount   string
	Currency string
	INRRate  string
	USDRate  string
	Format   string
}

// convertOnce performs a single conversion and writes the result view to w.
func convertOnce(w io.Writer, defaults calculator.RateTable, req conversionRequest, logger *zap.Logger) error {
	state := calculator.NewState(defaults)

	if req.INRRate != "" || req.USDRate != "" {
		if req.INRRate != "" {
			state = state.SetPendingRate(currency.INR, req.INRRate)
		}
		if req.USDRate != "" {
			state = state.SetPendingRate(currency.USD, req.USDRate)
		}
		next, err := state.ApplyRates()
		if err != nil {
			return err
		}
		state = next
	}

	if req.Currency != "" {
		code, err := currency.ParseCode(req.Currency)
		if err != nil {
			return err
		}
		state = state.SelectCurrency(code)
	}

	// the raw text is validated as given so negative amounts are reported
	state.Amount = req.Amount
	state = state.Calculate()

	logger.Debug("conversion finished",
		zap.String("op", "main.convertOnce"),
		zap.String("amount", req.Amount),
		zap.Stringer("currency", state.Currency),
		zap.Bool("valid", state.Err == nil),
	)

	if err := output.Write(w, req.Format, state.View()); err != nil {
		return err
	}
	if state.Err != nil {
		return fmt.Errorf("%w: %s", errInvalidAmount, state.Err.Message)
	}
	return nil
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	amount := flag.String("amount", "", "amount to convert; starts an interactive session when empty")
	currencyFlag := flag.String("currency", "", "currency the amount is in: THB, INR, USD")
	inrRate := flag.String("inr-rate", "", "override for INR per 1 THB")
	usdRate := flag.String("usd-rate", "", "override for USD per 1 THB")
	interactive := flag.Bool("interactive", false, "start an interactive session")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	defaults := conf.DefaultRates()

	if *interactive || *amount == "" {
		if err := repl.New(defaults, os.Stdout, logger).Run(os.Stdin); err != nil {
			logger.Fatal("interactive session failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	err = convertOnce(os.Stdout, defaults, conversionRequest{
		Amount:   *amount,
		Currency: *currencyFlag,
		INRRate:  *inrRate,
		USDRate:  *usdRate,
		Format:   outputFormat,
	}, logger)
	if errors.Is(err, errInvalidAmount) {
		_ = logger.Sync()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("conversion failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
