package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pagegen/appstate"
	"pagegen/core"
	"pagegen/db"
	"pagegen/history"
	"pagegen/logging"
	"pagegen/metrics"
	"pagegen/pipeline"
	"pagegen/providers"
	"pagegen/shutdown"
	"pagegen/webui"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "app.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	config, err := core.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Startup checks run before anything touches the network or disk state.
	preflight := core.NewPreflight(config).Run()
	if !preflight.Success {
		logger.Error("Startup checks failed", zap.Error(preflight.FirstError()))
		os.Exit(1)
	}

	logger.Info("Configuration loaded",
		zap.Int("port", config.Port),
		zap.String("data_dir", config.DataDir),
		zap.String("text_model", config.TextModel),
		zap.Int("max_retries", config.MaxRetries),
		zap.Duration("retry_delay", config.RetryDelay),
		zap.Int("batch_size", config.BatchSize),
		zap.Int("undo_depth", config.UndoDepth),
		zap.Bool("dev_mode", isDevelopment),
	)

	presets, err := core.LoadPresets(config.PresetFile)
	if err != nil {
		logger.Fatal("Failed to load platform presets", zap.Error(err))
	}

	database, err := db.NewDatabase(db.DatabaseConfig{
		Path: filepath.Join(config.DataDir, "history.db"),
	})
	if err != nil {
		logger.Fatal("Failed to open history database", zap.Error(err))
	}

	credentials := core.NewCredentialStore(config)
	gateway := providers.NewGateway(config, credentials, logger)

	stats := metrics.NewStore(100)

	executor := pipeline.NewRetryExecutor(gateway.Images, config, logger)
	scheduler := pipeline.NewBatchScheduler(executor, config, logger)
	planner := pipeline.NewScenePlanner(gateway.Text, presets, config, logger)
	copygen := pipeline.NewCopyGenerator(gateway.Text, gateway.Search, logger)
	pipe := pipeline.New(planner, scheduler, executor, copygen, gateway.Hosting, stats, config, logger)

	timeline := history.NewTimeline(config.UndoDepth)
	machine := appstate.NewMachine(pipe, func(snapshot appstate.State) {
		timeline.Record(snapshot)
	}, logger)

	saved := history.NewService(db.NewRepository(database), config.SavedHistoryCap, logger)

	server := webui.NewServer(webui.ServerConfig{Port: config.Port}, machine, timeline, saved, credentials, stats, logger)

	mgr := shutdown.NewManager(logger)
	mgr.Register("web server", 10, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	mgr.Register("history database", 30, func(ctx context.Context) error {
		return database.Close()
	})
	mgr.Start()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Web server stopped unexpectedly", zap.Error(err))
			go mgr.Shutdown()
		}
	}()

	logger.Info("Page generator ready", zap.Int("port", config.Port))

	mgr.Wait()
	if err := mgr.Shutdown(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Goodbye!")
}
