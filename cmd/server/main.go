// Package main is the entry point for the taskquest web server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (environment, optional .env file)
//  2. Create the logger
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/service, ...). The admin tool lives next door in cmd/taskquestctl.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sakif/taskquest/internal/logging"
	"github.com/sakif/taskquest/internal/server"
)

func main() {
	// === 1. OPTIONAL .env FILE ===
	// godotenv.Load never overrides variables that are already set, so the
	// real environment always wins. A missing file is fine.
	_ = godotenv.Load()

	// === 2. SET UP LOGGING ===
	logger := logging.Setup(os.Getenv("LOG_LEVEL"))

	// === 3. READ CONFIGURATION ===
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. DATABASE DIRECTORY ===
	// os.MkdirAll is `mkdir -p`; 0755 = owner rwx, others r-x.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
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
