package database

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"gorm.io/gorm/clause"

	"cenometr/server/internal/models"
)

// UpsertDistricts writes taxonomy rows, replacing boundary and metadata for
// districts that already exist. Re-seeding the same file is a no-op apart
// from refreshed geometry.
func (d *Database) UpsertDistricts(ctx context.Context, districts []models.District) error {
	if len(districts) == 0 {
		return nil
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "city"}, {Name: "district"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "boundary", "centroid_lat", "centroid_lng",
			"bbox_west", "bbox_south", "bbox_east", "bbox_north",
			"population", "area_km2",
		}),
	}).Create(&districts).Error
	if err != nil {
		return fmt.Errorf("failed to upsert districts: %w", err)
	}
	return nil
}

func (d *Database) DistrictsByCity(ctx context.Context, city string) ([]models.District, error) {
	var districts []models.District
	err := d.db.WithContext(ctx).
		Where("city = ?", city).
		Order("district").
		Find(&districts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query districts for %s: %w", city, err)
	}
	return districts, nil
}

func (d *Database) AllDistricts(ctx context.Context) ([]models.District, error) {
	var districts []models.District
	err := d.db.WithContext(ctx).
		Order("city, district").
		Find(&districts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query districts: %w", err)
	}
	return districts, nil
}

// DistrictsInViewport returns every district whose bounding box overlaps the
// viewport, plus the remaining districts of any city that had an overlap, so
// the map can render whole cities rather than clipped fragments.
func (d *Database) DistrictsInViewport(ctx context.Context, viewport orb.Bound) ([]models.District, error) {
	var hits []models.District
	err := d.db.WithContext(ctx).
		Where("bbox_west <= ? AND bbox_east >= ? AND bbox_south <= ? AND bbox_north >= ?",
			viewport.Max[0], viewport.Min[0], viewport.Max[1], viewport.Min[1]).
		Find(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query viewport districts: %w", err)
	}
	if len(hits) == 0 {
		return []models.District{}, nil
	}

	seen := make(map[string]bool, len(hits))
	cities := make([]string, 0, len(hits))
	for _, h := range hits {
		if !seen[h.City] {
			seen[h.City] = true
			cities = append(cities, h.City)
		}
	}

	var districts []models.District
	err = d.db.WithContext(ctx).
		Where("city IN ?", cities).
		Order("city, district").
		Find(&districts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to expand viewport cities: %w", err)
	}
	return districts, nil
}
