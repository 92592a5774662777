package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/aggregate"
	"cenometr/server/internal/api"
	"cenometr/server/internal/database"
	"cenometr/server/internal/ingest"
	"cenometr/server/internal/notify"
	"cenometr/server/internal/processor"
	"cenometr/server/internal/queue"
	"cenometr/server/internal/scheduler"
	"cenometr/server/internal/trend"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
	}
	logger.Infof("Using database at: %s", cfg.Database.Path)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	ingestor := ingest.NewIngestor(db, logger)
	if cfg.Notify.Enabled {
		ingestor.SetNotifier(notify.NewService(db, cfg, logger))
		logger.Info("Telegram price alerts enabled")
	}

	listingQueue := queue.NewListingQueue(cfg.Ingest.QueueSize, logger)
	defer listingQueue.Close()

	batchProcessor := processor.NewBatchProcessor(ingestor, listingQueue, cfg, logger)
	batchProcessor.Start()
	defer batchProcessor.Stop()

	aggregator := aggregate.NewAggregator(db, cfg, logger)
	sched := scheduler.NewScheduler(aggregator, cfg, logger)
	sched.Start()
	defer sched.Stop()

	trends := trend.NewCalculator(db, cfg.Trend.LookbackDays)
	handler := api.NewHandler(db, listingQueue, trends, cfg, logger)
	router := api.SetupRouter(handler, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	logger.Infof("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
