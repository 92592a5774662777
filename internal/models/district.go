package models

import (
	"time"

	"gorm.io/datatypes"
)

// District is one canonical sub-area of a city. Rows are owned by the
// boundary seeder; listings and snapshots refer to districts by the
// (City, District) slug pair and never by ID.
type District struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	City        string         `gorm:"size:64;uniqueIndex:idx_districts_city_slug,priority:1;not null" json:"city"`
	District    string         `gorm:"size:128;uniqueIndex:idx_districts_city_slug,priority:2;not null" json:"district"`
	Name        string         `gorm:"size:128" json:"name"`
	Boundary    datatypes.JSON `json:"boundary,omitempty"`
	CentroidLat float64        `json:"centroid_lat"`
	CentroidLng float64        `json:"centroid_lng"`
	BboxWest    float64        `json:"-"`
	BboxSouth   float64        `json:"-"`
	BboxEast    float64        `json:"-"`
	BboxNorth   float64        `json:"-"`
	Population  *int           `json:"population,omitempty"`
	AreaKm2     *float64       `gorm:"column:area_km2" json:"area_km2,omitempty"`
	CreatedAt   time.Time      `json:"-"`
}

func (District) TableName() string {
	return "districts"
}
