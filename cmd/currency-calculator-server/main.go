package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/currency-calculator/internal/config"
	"github.com/iwvelando/currency-calculator/internal/logging"
	"github.com/iwvelando/currency-calculator/internal/server"
	"github.com/iwvelando/currency-calculator/internal/session"
	"github.com/iwvelando/currency-calculator/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override, e.g. :8080")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load .env\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range cfg.Warnings() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	defaults := cfg.DefaultRates()
	store, err := session.New(session.Config{
		TTL:         cfg.SessionTTLDuration(),
		MaxSessions: cfg.MaxSessions,
		Defaults:    defaults,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create session store",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer store.Close()

	handler := server.NewHandler(logger, store, server.Options{
		MaxBodySize: cfg.BodySizeBytes(),
		Version:     version,
		Defaults:    defaults,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting currency calculator server",
		zap.String("op", "main"),
		zap.String("version", version),
		zap.String("base", defaults.String()),
		zap.Duration("session_ttl", cfg.SessionTTLDuration()),
	)

	if err := server.Run(ctx, cfg, handler, logger); err != nil {
		logger.Error("server stopped with error",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	}
	logger.Info("server stopped", zap.String("op", "main"))
}
