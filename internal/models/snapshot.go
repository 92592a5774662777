package models

import "time"

// DistrictStats is one day's aggregated price statistics for a
// (city, district, offer type) scope. Rows are written only by the
// aggregator; re-running a date overwrites the row in place, so a given key
// never has more than one row.
type DistrictStats struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	City            string    `gorm:"size:64;uniqueIndex:idx_district_stats_key,priority:1;not null" json:"city"`
	District        string    `gorm:"size:128;uniqueIndex:idx_district_stats_key,priority:2;not null" json:"district"`
	Date            Date      `gorm:"type:date;uniqueIndex:idx_district_stats_key,priority:3;not null" json:"date"`
	OfferType       OfferType `gorm:"size:8;uniqueIndex:idx_district_stats_key,priority:4;not null" json:"offer_type"`
	AvgPriceM2      float64   `gorm:"column:avg_price_m2" json:"avg_price_m2"`
	MedianPriceM2   float64   `gorm:"column:median_price_m2" json:"median_price_m2"`
	MinPriceM2      float64   `gorm:"column:min_price_m2" json:"min_price_m2"`
	MaxPriceM2      float64   `gorm:"column:max_price_m2" json:"max_price_m2"`
	P10PriceM2      float64   `gorm:"column:p10_price_m2" json:"p10_price_m2"`
	P90PriceM2      float64   `gorm:"column:p90_price_m2" json:"p90_price_m2"`
	StddevPriceM2   float64   `gorm:"column:stddev_price_m2" json:"stddev_price_m2"`
	ListingCount    int       `json:"listing_count"`
	NewListings     int       `json:"new_listings"`
	AvgSizeM2       float64   `gorm:"column:avg_size_m2" json:"avg_size_m2"`
	Count1Room      int       `gorm:"column:count_1room" json:"count_1room"`
	Count2Rooms     int       `gorm:"column:count_2rooms" json:"count_2rooms"`
	Count3Rooms     int       `gorm:"column:count_3rooms" json:"count_3rooms"`
	Count4PlusRooms int       `gorm:"column:count_4plus_rooms" json:"count_4plus_rooms"`
	AvgPrice        float64   `json:"avg_price"`
	CreatedAt       time.Time `json:"-"`
}

func (DistrictStats) TableName() string {
	return "district_stats"
}

// RoomHistogram exposes the room-count buckets in the map form API payloads
// use.
func (s *DistrictStats) RoomHistogram() map[string]int {
	return map[string]int{
		"1":  s.Count1Room,
		"2":  s.Count2Rooms,
		"3":  s.Count3Rooms,
		"4+": s.Count4PlusRooms,
	}
}
