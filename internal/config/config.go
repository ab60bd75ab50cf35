// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/iwvelando/currency-calculator/pkg/mathutil"
	"github.com/iwvelando/currency-calculator/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for currency-calculator.
type Configuration struct {
	Rates   RatesConfig   `mapstructure:"rates" yaml:"rates,omitempty"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging,omitempty"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output,omitempty"`
}

// RatesConfig holds the default rate table, as multipliers from THB.
type RatesConfig struct {
	INR float64 `mapstructure:"inr" yaml:"inr,omitempty"`
	USD float64 `mapstructure:"usd" yaml:"usd,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file is not an error; defaults and
// environment overrides still apply.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

// LoadDotEnv loads environment variables from the given files, or from .env
// when none are given. Missing files are ignored and variables already set
// in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading env file %s, %w", file, err)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("rates.inr", constants.DefaultINRRate)
	v.SetDefault("rates.usd", constants.DefaultUSDRate)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// configuredRates maps each non-base currency to its configured rate.
func (c *Configuration) configuredRates() map[currency.Code]float64 {
	return map[currency.Code]float64{
		currency.INR: c.Rates.INR,
		currency.USD: c.Rates.USD,
	}
}

// DefaultRates returns the configured default rate table. Any configured
// rate that is not a positive finite number is replaced by the built-in one.
func (c *Configuration) DefaultRates() calculator.RateTable {
	builtIn := calculator.DefaultRates()
	rates := c.configuredRates()
	for code, rate := range rates {
		if !mathutil.IsFinite(rate) || rate <= 0 {
			rates[code] = builtIn.Rate(code)
		}
	}
	table, err := calculator.NewRateTable(rates)
	if err != nil {
		return builtIn
	}
	return table
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	builtIn := calculator.DefaultRates()
	cv := validation.ConfigValidator{LoggingFormat: c.Logging.Format}
	rates := c.configuredRates()
	for _, code := range currency.Codes() {
		if code.IsBase() {
			continue
		}
		cv.Rates = append(cv.Rates, validation.RateConfig{
			Name:     code.String(),
			Rate:     rates[code],
			Fallback: builtIn.Rate(code),
		})
	}
	return cv.ValidateAll()
}
