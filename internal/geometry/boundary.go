package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"gorm.io/datatypes"

	"cenometr/server/internal/models"
	"cenometr/server/internal/normalize"
)

// DecodeBoundary parses a stored GeoJSON geometry back into orb form.
func DecodeBoundary(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boundary: %w", err)
	}
	return g.Geometry(), nil
}

// Centroid returns the area centroid of a boundary as (lat, lng).
func Centroid(g orb.Geometry) (lat, lng float64) {
	c, _ := planar.CentroidArea(g)
	return c[1], c[0]
}

func stringProp(props geojson.Properties, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// FeatureToDistrict converts one seed-file feature into a taxonomy row,
// deriving the centroid and bounding box from its geometry. City and
// district names are slugified so lookups against resolved listings match.
func FeatureToDistrict(f *geojson.Feature) (models.District, error) {
	city := normalize.Slug(stringProp(f.Properties, "city"))
	slug := normalize.Slug(stringProp(f.Properties, "district"))
	if city == "" || slug == "" {
		return models.District{}, fmt.Errorf("feature is missing city or district property")
	}
	if f.Geometry == nil {
		return models.District{}, fmt.Errorf("feature %s/%s has no geometry", city, slug)
	}

	name := stringProp(f.Properties, "name")
	if name == "" {
		name = stringProp(f.Properties, "district")
	}

	boundary, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
	if err != nil {
		return models.District{}, fmt.Errorf("failed to encode boundary for %s/%s: %w", city, slug, err)
	}

	centroid, _ := planar.CentroidArea(f.Geometry)
	bound := f.Geometry.Bound()

	district := models.District{
		City:        city,
		District:    slug,
		Name:        name,
		Boundary:    datatypes.JSON(boundary),
		CentroidLat: centroid[1],
		CentroidLng: centroid[0],
		BboxWest:    bound.Min[0],
		BboxSouth:   bound.Min[1],
		BboxEast:    bound.Max[0],
		BboxNorth:   bound.Max[1],
	}

	// Optional demographic metadata; JSON numbers arrive as float64.
	if v, ok := f.Properties["population"].(float64); ok {
		p := int(v)
		district.Population = &p
	}
	if v, ok := f.Properties["area_km2"].(float64); ok {
		a := v
		district.AreaKm2 = &a
	}
	return district, nil
}
