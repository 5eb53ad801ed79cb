package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"stockDashboard/config"
	"stockDashboard/internal/adapters/httpapi"
	"stockDashboard/internal/adapters/logger"
	"stockDashboard/internal/adapters/sqlite"
	"stockDashboard/internal/analysis/pipeline"
	"stockDashboard/internal/pricedata"
	"stockDashboard/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Snapshot Repository (Database Adapter)
	var snapshots ports.SnapshotRepository
	if cfg.SnapshotCacheEnabled {
		repo, err := sqlite.NewRepository(sqlite.Config{
			DBPath: cfg.DBPath,
			Logger: appLogger.Named("sqlite"),
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize snapshot repository")
			log.Fatalf("FATAL: Failed to initialize snapshot repository: %v", err) // Also log to stderr
		}
		defer func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing snapshot repository")
			}
		}()
		snapshots = repo
		appLogger.Info(context.Background(), "Snapshot repository initialized")
	} else {
		appLogger.Info(context.Background(), "Snapshot cache disabled")
	}

	// 4. Initialize Price Store
	store, err := pricedata.NewStore(pricedata.StoreConfig{
		Source:    pricedata.NewCSVSource(cfg.DataCSVPath, appLogger.Named("csv")),
		Snapshots: snapshots,
		Logger:    appLogger.Named("store"),
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price store")
		log.Fatalf("FATAL: Failed to initialize price store: %v", err)
	}

	// Warm the store so a missing file is reported at startup.
	if _, err := store.Table(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to load price data")
		log.Fatalf("FATAL: Failed to load price data: %v", err)
	}
	appLogger.Info(context.Background(), "Price store initialized", map[string]interface{}{"path": cfg.DataCSVPath})

	// 5. Initialize Pipeline
	seriesPipeline := pipeline.New(pipeline.Config{RSIEnabled: cfg.RSIEnabled})

	// 6. Initialize HTTP Server
	server, err := httpapi.NewServer(httpapi.Config{
		Host:             cfg.HTTPHost,
		Port:             cfg.HTTPPort,
		Debug:            cfg.LogLevel == logger.LevelDebug,
		RSIEnabled:       cfg.RSIEnabled,
		DefaultThreshold: cfg.DefaultPriceThreshold,
	}, store, seriesPipeline, appLogger.Named("http"))
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 7. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server exited with error")
		stop()
		log.Fatalf("FATAL: HTTP server exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
