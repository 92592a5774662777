package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cenometr/server/internal/models"
)

// snapshotValueColumns are the columns a re-run overwrites; the four key
// columns stay untouched.
var snapshotValueColumns = []string{
	"avg_price_m2", "median_price_m2", "min_price_m2", "max_price_m2",
	"p10_price_m2", "p90_price_m2", "stddev_price_m2",
	"listing_count", "new_listings", "avg_size_m2",
	"count_1room", "count_2rooms", "count_3rooms", "count_4plus_rooms",
	"avg_price",
}

// UpsertSnapshot writes one aggregation result. The unique key on
// (city, district, date, offer_type) means re-running a day replaces the
// row instead of duplicating it.
func (d *Database) UpsertSnapshot(ctx context.Context, snap *models.DistrictStats) error {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "city"}, {Name: "district"}, {Name: "date"}, {Name: "offer_type"},
		},
		DoUpdates: clause.AssignmentColumns(snapshotValueColumns),
	}).Create(snap).Error
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot for one scope, or nil when the
// scope has never been aggregated.
func (d *Database) LatestSnapshot(ctx context.Context, city, district string, offer models.OfferType) (*models.DistrictStats, error) {
	var snap models.DistrictStats
	err := d.db.WithContext(ctx).
		Where("city = ? AND district = ? AND offer_type = ?", city, district, offer).
		Order("date DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotOnOrBefore returns the most recent snapshot dated on or before
// cutoff, or nil when history does not reach back that far.
func (d *Database) SnapshotOnOrBefore(ctx context.Context, city, district string, offer models.OfferType, cutoff models.Date) (*models.DistrictStats, error) {
	var snap models.DistrictStats
	err := d.db.WithContext(ctx).
		Where("city = ? AND district = ? AND offer_type = ? AND date <= ?", city, district, offer, cutoff).
		Order("date DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	return &snap, nil
}

// SnapshotHistory returns the snapshots for one scope from a start date
// onwards, oldest first.
func (d *Database) SnapshotHistory(ctx context.Context, city, district string, offer models.OfferType, from models.Date) ([]models.DistrictStats, error) {
	var snaps []models.DistrictStats
	err := d.db.WithContext(ctx).
		Where("city = ? AND district = ? AND offer_type = ? AND date >= ?", city, district, offer, from).
		Order("date ASC").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	return snaps, nil
}

// LatestSnapshotsByCity returns the newest snapshot per district for one
// city and offer type in a single query. Dates are ISO strings, so MAX()
// picks the chronologically latest row.
func (d *Database) LatestSnapshotsByCity(ctx context.Context, city string, offer models.OfferType) ([]models.DistrictStats, error) {
	var snaps []models.DistrictStats
	err := d.db.WithContext(ctx).Raw(`
		SELECT s.*
		FROM district_stats s
		JOIN (
			SELECT district, MAX(date) AS max_date
			FROM district_stats
			WHERE city = ? AND offer_type = ?
			GROUP BY district
		) latest ON s.district = latest.district AND s.date = latest.max_date
		WHERE s.city = ? AND s.offer_type = ?
		ORDER BY s.district
	`, city, offer, city, offer).Scan(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	return snaps, nil
}
