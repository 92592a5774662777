package config

// City represents a city configuration for the map UI
type City struct {
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Center    []float64 `json:"center"`
	ZoomLevel int       `json:"zoom_level"`
}

// SupportedCities is a list of cities supported by the application
var SupportedCities = []City{
	{
		Name:      "Warszawa",
		Slug:      "warszawa",
		Center:    []float64{52.2297, 21.0122},
		ZoomLevel: 11,
	},
	{
		Name:      "Kraków",
		Slug:      "krakow",
		Center:    []float64{50.0647, 19.9450},
		ZoomLevel: 12,
	},
	{
		Name:      "Wrocław",
		Slug:      "wroclaw",
		Center:    []float64{51.1079, 17.0385},
		ZoomLevel: 12,
	},
	{
		Name:      "Gdańsk",
		Slug:      "gdansk",
		Center:    []float64{54.3520, 18.6466},
		ZoomLevel: 12,
	},
	{
		Name:      "Poznań",
		Slug:      "poznan",
		Center:    []float64{52.4064, 16.9252},
		ZoomLevel: 12,
	},
	{
		Name:      "Łódź",
		Slug:      "lodz",
		Center:    []float64{51.7592, 19.4560},
		ZoomLevel: 12,
	},
}

// GetCityNames returns a list of supported city slugs
func GetCityNames() []string {
	names := make([]string, len(SupportedCities))
	for i, city := range SupportedCities {
		names[i] = city.Slug
	}
	return names
}

// GetCityBySlug returns a city configuration by slug
func GetCityBySlug(slug string) *City {
	for _, city := range SupportedCities {
		if city.Slug == slug {
			return &city
		}
	}
	return nil
}
