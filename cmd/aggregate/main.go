package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/aggregate"
	"cenometr/server/internal/database"
	"cenometr/server/internal/models"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	dateFlag := flag.String("date", "", "aggregate as of this date (YYYY-MM-DD, default today)")
	purgeFlag := flag.Bool("purge", false, "delete listings older than the retention window after aggregating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	asOf := models.Today()
	if *dateFlag != "" {
		asOf, err = models.ParseDate(*dateFlag)
		if err != nil {
			logger.WithError(err).Fatal("Invalid -date value")
		}
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := aggregate.NewAggregator(db, cfg, logger)
	result, err := aggregator.Run(ctx, asOf)
	if err != nil {
		logger.WithError(err).Fatal("Aggregation run failed")
	}

	logger.WithFields(logrus.Fields{
		"date":    asOf.String(),
		"written": result.Written,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Aggregation run complete")

	if *purgeFlag {
		deleted, err := aggregator.PurgeExpired(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Listing purge failed")
		}
		logger.WithField("deleted", deleted).Info("Purge complete")
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
}
