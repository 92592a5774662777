package geometry

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"cenometr/server/internal/database"
	"cenometr/server/internal/models"
)

// Seeder loads district boundaries from GeoJSON feature collections into
// the taxonomy table. Seeding is idempotent: re-running the same file
// refreshes geometry without duplicating rows.
type Seeder struct {
	db     *database.Database
	logger *logrus.Logger
}

func NewSeeder(db *database.Database, logger *logrus.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

// SeedFromFile reads a FeatureCollection and upserts one district per valid
// feature, returning how many were written. Invalid features are logged and
// skipped rather than aborting the whole seed.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.Seed(ctx, data)
}

func (s *Seeder) Seed(ctx context.Context, data []byte) (int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse seed data: %w", err)
	}

	districts := make([]models.District, 0, len(fc.Features))
	for i, f := range fc.Features {
		district, err := FeatureToDistrict(f)
		if err != nil {
			s.logger.WithError(err).WithField("feature", i).Warn("Skipping invalid district feature")
			continue
		}
		districts = append(districts, district)
	}
	if len(districts) == 0 {
		return 0, fmt.Errorf("seed data contains no usable district features")
	}

	if err := s.db.UpsertDistricts(ctx, districts); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"districts": len(districts),
		"skipped":   len(fc.Features) - len(districts),
	}).Info("Seeded district boundaries")

	return len(districts), nil
}
