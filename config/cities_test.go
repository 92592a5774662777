package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedCities(t *testing.T) {
	require.NotEmpty(t, SupportedCities)

	seen := make(map[string]bool)
	for _, city := range SupportedCities {
		t.Run(city.Slug, func(t *testing.T) {
			// Slugs are what every API parameter and database row is keyed
			// on, so they must be normalized and unique.
			assert.Equal(t, strings.ToLower(city.Slug), city.Slug)
			assert.NotContains(t, city.Slug, " ")
			assert.False(t, seen[city.Slug], "duplicate slug %s", city.Slug)
			seen[city.Slug] = true

			assert.NotEmpty(t, city.Name)
			require.Len(t, city.Center, 2)
			// Poland, roughly.
			assert.InDelta(t, 52.0, city.Center[0], 3.0)
			assert.InDelta(t, 19.0, city.Center[1], 3.0)
			assert.Greater(t, city.ZoomLevel, 0)
		})
	}
}

func TestGetCityNames(t *testing.T) {
	names := GetCityNames()
	require.Len(t, names, len(SupportedCities))
	assert.Equal(t, "warszawa", names[0])
	assert.Contains(t, names, "lodz")
}

func TestGetCityBySlug(t *testing.T) {
	tests := []struct {
		name         string
		slug         string
		expectedName string
		expectNil    bool
	}{
		{
			name:         "capital",
			slug:         "warszawa",
			expectedName: "Warszawa",
		},
		{
			name:         "slug with folded diacritics",
			slug:         "lodz",
			expectedName: "Łódź",
		},
		{
			name:      "unknown city",
			slug:      "gotham",
			expectNil: true,
		},
		{
			name:      "display name is not a slug",
			slug:      "Warszawa",
			expectNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city := GetCityBySlug(tt.slug)
			if tt.expectNil {
				assert.Nil(t, city)
				return
			}
			require.NotNil(t, city)
			assert.Equal(t, tt.expectedName, city.Name)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5280, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "database/cenometr.db", cfg.Database.Path)
	assert.Equal(t, 64, cfg.Ingest.QueueSize)
	assert.Equal(t, 500, cfg.Ingest.MaxBatchSize)
	assert.Equal(t, 2, cfg.Ingest.WorkerCount)
	assert.Equal(t, 30, cfg.Aggregation.WindowDays)
	assert.Equal(t, 4, cfg.Aggregation.WorkerCount)
	assert.Equal(t, 2, cfg.Aggregation.DailyHour)
	assert.False(t, cfg.Aggregation.RunOnStartup)
	assert.Equal(t, 30, cfg.Retention.ListingDays)
	assert.Equal(t, 30, cfg.Trend.LookbackDays)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, 10.0, cfg.Notify.BelowMedianPct)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://cenometr.pl,https://staging.cenometr.pl")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("AGGREGATION_WINDOW_DAYS", "14")
	t.Setenv("AGGREGATION_RUN_ON_STARTUP", "true")
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://cenometr.pl", "https://staging.cenometr.pl"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 14, cfg.Aggregation.WindowDays)
	assert.True(t, cfg.Aggregation.RunOnStartup)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "123:abc", cfg.Notify.BotToken)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	_, err := LoadConfig()
	assert.Error(t, err)
}
