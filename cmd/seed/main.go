package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/database"
	"cenometr/server/internal/geometry"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	fileFlag := flag.String("file", "", "GeoJSON FeatureCollection with district boundaries")
	flag.Parse()

	if *fileFlag == "" {
		logger.Fatal("-file is required")
	}

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

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	seeder := geometry.NewSeeder(db, logger)
	count, err := seeder.SeedFromFile(context.Background(), *fileFlag)
	if err != nil {
		logger.WithError(err).Fatal("Seeding districts failed")
	}

	logger.WithField("districts", count).Info("District seeding complete")
}
