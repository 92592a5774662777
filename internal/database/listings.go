package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"cenometr/server/internal/models"
)

// ListingFilter narrows the listing detail query. Zero values mean no
// constraint; Limit is applied only when positive, the API layer owns
// defaults and caps.
type ListingFilter struct {
	City      string
	District  string
	OfferType models.OfferType
	PriceMin  *float64
	PriceMax  *float64
	SizeMin   *float64
	SizeMax   *float64
	Rooms     []int
	Limit     int
}

// UpsertListings writes a batch keyed on external_id: new IDs insert, known
// IDs refresh price, size and scrape metadata in place. Returns the number
// of rows written. Replaying the same batch is safe.
func (d *Database) UpsertListings(ctx context.Context, listings []models.Listing) (int64, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source", "city", "district", "address", "latitude", "longitude",
			"price", "size_m2", "rooms", "offer_type", "price_per_area",
			"url", "title", "thumbnail_url", "scraped_at",
		}),
	}).Create(&listings)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert listings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListingsInWindow returns the listings feeding one aggregation task:
// scraped_at in [from, to), ordered by id for deterministic iteration.
func (d *Database) ListingsInWindow(ctx context.Context, city, district string, offer models.OfferType, from, to time.Time) ([]models.Listing, error) {
	var listings []models.Listing
	err := d.db.WithContext(ctx).
		Where("city = ? AND district = ? AND offer_type = ?", city, district, offer).
		Where("scraped_at >= ? AND scraped_at < ?", from.UTC(), to.UTC()).
		Order("id").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query listing window: %w", err)
	}
	return listings, nil
}

func (d *Database) FilterListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	q := d.db.WithContext(ctx).Model(&models.Listing{})
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.District != "" {
		q = q.Where("district = ?", filter.District)
	}
	if filter.OfferType != "" {
		q = q.Where("offer_type = ?", filter.OfferType)
	}
	if filter.PriceMin != nil {
		q = q.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		q = q.Where("price <= ?", *filter.PriceMax)
	}
	if filter.SizeMin != nil {
		q = q.Where("size_m2 >= ?", *filter.SizeMin)
	}
	if filter.SizeMax != nil {
		q = q.Where("size_m2 <= ?", *filter.SizeMax)
	}
	if len(filter.Rooms) > 0 {
		// Four maps to the open-ended "4+" bucket the UI exposes.
		exact := make([]int, 0, len(filter.Rooms))
		fourPlus := false
		for _, r := range filter.Rooms {
			if r >= 4 {
				fourPlus = true
			} else {
				exact = append(exact, r)
			}
		}
		switch {
		case fourPlus && len(exact) > 0:
			q = q.Where("rooms IN ? OR rooms >= 4", exact)
		case fourPlus:
			q = q.Where("rooms >= 4")
		default:
			q = q.Where("rooms IN ?", exact)
		}
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var listings []models.Listing
	err := q.Order("scraped_at DESC, id DESC").Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to filter listings: %w", err)
	}
	return listings, nil
}

// DeleteListingsBefore drops listings last scraped before cutoff and
// returns how many rows went. Snapshot rows are never touched.
func (d *Database) DeleteListingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := d.db.WithContext(ctx).
		Where("scraped_at < ?", cutoff.UTC()).
		Delete(&models.Listing{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge listings: %w", result.Error)
	}
	return result.RowsAffected, nil
}
