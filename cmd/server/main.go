// Package main is the entry point for the expense tracker server.
//
// The main package stays minimal — its job is to:
// 1. Load configuration (a local .env file, then environment variables)
// 2. Create shared dependencies (logger, SMS provider)
// 3. Hand everything to internal/server and start it
//
// All actual logic lives in the imported internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sakif/expense-tracker/internal/config"
	"github.com/sakif/expense-tracker/internal/server"
	"github.com/sakif/expense-tracker/internal/sms"
)

func main() {
	// A missing .env is fine — production sets real environment variables.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure the data directory exists before SQLite tries to create the file.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Pick the SMS provider ONCE, here, from configuration. The dev provider
	// logs codes instead of delivering them and surfaces them through the
	// request-code response — never run it in production.
	var sender sms.Provider
	switch cfg.SMSProvider {
	case "http":
		sender = sms.NewGateway(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSFrom, logger)
		logger.Info("using HTTP SMS gateway")
	default:
		sender = sms.NewDev(logger)
		logger.Warn("using dev SMS provider — verification codes are logged and returned to callers")
	}

	srv, err := server.New(cfg, sender, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
