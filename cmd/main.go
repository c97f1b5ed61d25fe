package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"url-migrator/internal/migration"
	"url-migrator/internal/migration/config"
	"url-migrator/internal/shared/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewServiceLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger = appLogger.WithFields(map[string]interface{}{
		"run_id": uuid.NewString()[:8],
	})

	appLogger.Info("Starting URL migration service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	module, err := migration.NewModule(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Errorf("Failed to connect to database. Exiting. %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := module.Close(); err != nil {
			appLogger.Errorf("Failed to close MongoDB connection: %v", err)
		}
	}()

	// Blocks until SIGINT or SIGTERM; the final statistics summary is
	// printed on the way out.
	if err := module.Run(ctx); err != nil {
		appLogger.Errorf("Service loop failed: %v", err)
	}

	appLogger.Info("Service stopped")
}
