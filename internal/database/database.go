package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cenometr/server/internal/models"
)

// Database wraps the gorm handle and exposes the typed queries the rest of
// the server uses. Every method takes a context so batch jobs can be
// cancelled between statements.
type Database struct {
	db *gorm.DB
}

// NewDatabase opens (or creates) the sqlite database at dbPath. WAL mode
// plus a busy timeout keeps ingest workers and the aggregator from tripping
// over each other's writes.
func NewDatabase(dbPath string) (*Database, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Database{db: db}, nil
}

// NewTestDB opens an isolated in-memory database with the schema migrated.
// The pool is capped at a single connection so every query sees the same
// in-memory instance.
func NewTestDB() (*Database, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.RunMigrations(); err != nil {
		return nil, err
	}
	return d, nil
}

// RunMigrations creates or updates the schema for all persisted models.
func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(
		&models.District{},
		&models.Listing{},
		&models.DistrictStats{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ping verifies the underlying connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the gorm handle for callers that need raw access.
func (d *Database) DB() *gorm.DB {
	return d.db
}
