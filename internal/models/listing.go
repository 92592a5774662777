package models

import "time"

// OfferType partitions listings and statistics by transaction kind.
type OfferType string

const (
	OfferSale OfferType = "sale"
	OfferRent OfferType = "rent"
)

// OfferTypes enumerates the valid partitions in a stable order.
var OfferTypes = []OfferType{OfferSale, OfferRent}

func (o OfferType) Valid() bool {
	return o == OfferSale || o == OfferRent
}

// ScrapedListing is the raw record a scraper run delivers. District carries
// the free-text location fragment exactly as it appeared on the source page;
// the ingestor resolves it against the canonical taxonomy.
type ScrapedListing struct {
	ExternalID   string    `json:"external_id"`
	Source       string    `json:"source"`
	City         string    `json:"city"`
	District     string    `json:"district"`
	Address      *string   `json:"address"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Price        float64   `json:"price"`
	SizeM2       float64   `json:"size_m2"`
	Rooms        *int      `json:"rooms"`
	OfferType    OfferType `json:"offer_type"`
	URL          string    `json:"url"`
	Title        *string   `json:"title"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// Listing is a deduplicated, district-resolved listing row. PricePerArea is
// always derived from Price and SizeM2; build rows through NewListing so the
// two cannot drift apart.
type Listing struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExternalID   string    `gorm:"uniqueIndex;size:128;not null" json:"external_id"`
	Source       string    `gorm:"size:64" json:"source"`
	City         string    `gorm:"size:64;index:idx_listings_scope,priority:1;not null" json:"city"`
	District     string    `gorm:"size:128;index:idx_listings_scope,priority:2;not null" json:"district"`
	Address      *string   `json:"address"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Price        float64   `gorm:"not null" json:"price"`
	SizeM2       float64   `gorm:"column:size_m2;not null" json:"size_m2"`
	Rooms        *int      `json:"rooms"`
	OfferType    OfferType `gorm:"size:8;index:idx_listings_scope,priority:3;not null" json:"offer_type"`
	PricePerArea float64   `gorm:"not null" json:"price_per_area"`
	URL          string    `json:"url"`
	Title        *string   `json:"title"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	ScrapedAt    time.Time `gorm:"index" json:"scraped_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// NewListing builds a Listing from a scraped record and its resolved city
// and district slugs. The caller validates Price and SizeM2 beforehand;
// ScrapedAt is normalized to UTC so range scans compare consistently.
func NewListing(raw ScrapedListing, city, district string) Listing {
	return Listing{
		ExternalID:   raw.ExternalID,
		Source:       raw.Source,
		City:         city,
		District:     district,
		Address:      raw.Address,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		Price:        raw.Price,
		SizeM2:       raw.SizeM2,
		Rooms:        raw.Rooms,
		OfferType:    raw.OfferType,
		PricePerArea: raw.Price / raw.SizeM2,
		URL:          raw.URL,
		Title:        raw.Title,
		ThumbnailURL: raw.ThumbnailURL,
		ScrapedAt:    raw.ScrapedAt.UTC(),
	}
}
