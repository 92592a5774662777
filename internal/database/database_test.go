package database

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cenometr/server/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func makeListing(externalID, city, district string, offer models.OfferType, price, size float64, scrapedAt time.Time) models.Listing {
	return models.Listing{
		ExternalID:   externalID,
		Source:       "testsource",
		City:         city,
		District:     district,
		Price:        price,
		SizeM2:       size,
		OfferType:    offer,
		PricePerArea: price / size,
		URL:          "https://example.com/" + externalID,
		ScrapedAt:    scrapedAt.UTC(),
	}
}

func TestNewTestDB(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestUpsertDistricts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	districts := []models.District{
		{City: "warszawa", District: "mokotow", Name: "Mokotów", CentroidLat: 52.19, CentroidLng: 21.04},
		{City: "warszawa", District: "wola", Name: "Wola", CentroidLat: 52.23, CentroidLng: 20.96},
	}
	require.NoError(t, db.UpsertDistricts(ctx, districts))

	// Re-seeding replaces metadata instead of duplicating rows.
	update := []models.District{
		{City: "warszawa", District: "mokotow", Name: "Mokotów (aktualizacja)", CentroidLat: 52.20, CentroidLng: 21.05, Population: intPtr(220000)},
	}
	require.NoError(t, db.UpsertDistricts(ctx, update))

	got, err := db.DistrictsByCity(ctx, "warszawa")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mokotow", got[0].District)
	assert.Equal(t, "Mokotów (aktualizacja)", got[0].Name)
	require.NotNil(t, got[0].Population)
	assert.Equal(t, 220000, *got[0].Population)
	assert.Equal(t, "wola", got[1].District)

	// Empty batch is a no-op.
	assert.NoError(t, db.UpsertDistricts(ctx, nil))
}

func TestDistrictsByCity_Empty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.DistrictsByCity(context.Background(), "gdansk")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAllDistricts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertDistricts(ctx, []models.District{
		{City: "wroclaw", District: "krzyki", Name: "Krzyki"},
		{City: "krakow", District: "podgorze", Name: "Podgórze"},
		{City: "krakow", District: "nowa-huta", Name: "Nowa Huta"},
	}))

	got, err := db.AllDistricts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "krakow", got[0].City)
	assert.Equal(t, "nowa-huta", got[0].District)
	assert.Equal(t, "podgorze", got[1].District)
	assert.Equal(t, "wroclaw", got[2].City)
}

func TestDistrictsInViewport(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertDistricts(ctx, []models.District{
		{City: "warszawa", District: "mokotow", BboxWest: 20.98, BboxSouth: 52.15, BboxEast: 21.10, BboxNorth: 52.22},
		{City: "warszawa", District: "bialoleka", BboxWest: 20.93, BboxSouth: 52.29, BboxEast: 21.10, BboxNorth: 52.38},
		{City: "gdansk", District: "oliwa", BboxWest: 18.52, BboxSouth: 54.38, BboxEast: 18.60, BboxNorth: 54.45},
	}))

	// Viewport overlapping only Mokotów still returns all Warsaw districts,
	// but not Gdańsk.
	viewport := orb.Bound{Min: orb.Point{21.00, 52.16}, Max: orb.Point{21.05, 52.20}}
	got, err := db.DistrictsInViewport(ctx, viewport)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bialoleka", got[0].District)
	assert.Equal(t, "mokotow", got[1].District)

	// A viewport over the Baltic hits nothing and returns an empty,
	// non-nil slice.
	empty, err := db.DistrictsInViewport(ctx, orb.Bound{Min: orb.Point{19.0, 55.0}, Max: orb.Point{19.5, 55.5}})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpsertListings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	scraped := time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC)

	batch := []models.Listing{
		makeListing("oto-1", "warszawa", "mokotow", models.OfferSale, 850000, 62.5, scraped),
		makeListing("oto-2", "warszawa", "mokotow", models.OfferSale, 610000, 41.0, scraped),
	}
	written, err := db.UpsertListings(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)

	// Same external id again: the row refreshes in place.
	updated := makeListing("oto-1", "warszawa", "mokotow", models.OfferSale, 870000, 62.5, scraped.Add(24*time.Hour))
	_, err = db.UpsertListings(ctx, []models.Listing{updated})
	require.NoError(t, err)

	got, err := db.FilterListings(ctx, ListingFilter{City: "warszawa"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "oto-1", got[0].ExternalID)
	assert.Equal(t, 870000.0, got[0].Price)

	// Empty batch writes nothing.
	written, err = db.UpsertListings(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), written)
}

func TestListingsInWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC)
	}
	batch := []models.Listing{
		makeListing("w-1", "warszawa", "wola", models.OfferSale, 700000, 50, day(1)),
		makeListing("w-2", "warszawa", "wola", models.OfferSale, 720000, 50, day(15)),
		makeListing("w-3", "warszawa", "wola", models.OfferSale, 750000, 50, day(31)),
		makeListing("w-4", "warszawa", "wola", models.OfferRent, 4200, 50, day(15)),
		makeListing("w-5", "warszawa", "mokotow", models.OfferSale, 900000, 60, day(15)),
	}
	_, err := db.UpsertListings(ctx, batch)
	require.NoError(t, err)

	// [from, to) keeps day 1 and 15, excludes day 31, other scopes filtered.
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	got, err := db.ListingsInWindow(ctx, "warszawa", "wola", models.OfferSale, from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "w-1", got[0].ExternalID)
	assert.Equal(t, "w-2", got[1].ExternalID)
}

func TestFilterListings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	scraped := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)

	l1 := makeListing("f-1", "krakow", "podgorze", models.OfferSale, 500000, 38, scraped)
	l1.Rooms = intPtr(1)
	l2 := makeListing("f-2", "krakow", "podgorze", models.OfferSale, 780000, 55, scraped.Add(time.Hour))
	l2.Rooms = intPtr(3)
	l3 := makeListing("f-3", "krakow", "podgorze", models.OfferSale, 1250000, 92, scraped.Add(2*time.Hour))
	l3.Rooms = intPtr(5)
	l4 := makeListing("f-4", "krakow", "podgorze", models.OfferRent, 3100, 45, scraped)
	_, err := db.UpsertListings(ctx, []models.Listing{l1, l2, l3, l4})
	require.NoError(t, err)

	// Price band.
	got, err := db.FilterListings(ctx, ListingFilter{
		City:     "krakow",
		PriceMin: floatPtr(600000),
		PriceMax: floatPtr(1000000),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f-2", got[0].ExternalID)

	// Rooms filter where 4 means four or more.
	got, err = db.FilterListings(ctx, ListingFilter{City: "krakow", Rooms: []int{1, 4}})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Offer type filter.
	got, err = db.FilterListings(ctx, ListingFilter{City: "krakow", OfferType: models.OfferRent})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f-4", got[0].ExternalID)

	// Size band plus limit; newest scrape first.
	got, err = db.FilterListings(ctx, ListingFilter{City: "krakow", SizeMin: floatPtr(30), Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f-3", got[0].ExternalID)
	assert.Equal(t, "f-2", got[1].ExternalID)
}

func TestDeleteListingsBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := makeListing("d-1", "lodz", "baluty", models.OfferSale, 400000, 48, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	fresh := makeListing("d-2", "lodz", "baluty", models.OfferSale, 420000, 48, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	_, err := db.UpsertListings(ctx, []models.Listing{old, fresh})
	require.NoError(t, err)

	deleted, err := db.DeleteListingsBefore(ctx, time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err := db.FilterListings(ctx, ListingFilter{City: "lodz"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d-2", got[0].ExternalID)
}

func TestUpsertSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	date := models.NewDate(2026, time.August, 20)

	snap := &models.DistrictStats{
		City: "warszawa", District: "mokotow", Date: date, OfferType: models.OfferSale,
		AvgPriceM2: 17250.50, MedianPriceM2: 16800, ListingCount: 42,
	}
	require.NoError(t, db.UpsertSnapshot(ctx, snap))

	// A re-run for the same key overwrites values, no duplicate row.
	rerun := &models.DistrictStats{
		City: "warszawa", District: "mokotow", Date: date, OfferType: models.OfferSale,
		AvgPriceM2: 17300.25, MedianPriceM2: 16900, ListingCount: 45,
	}
	require.NoError(t, db.UpsertSnapshot(ctx, rerun))

	got, err := db.LatestSnapshot(ctx, "warszawa", "mokotow", models.OfferSale)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 17300.25, got.AvgPriceM2)
	assert.Equal(t, 45, got.ListingCount)

	history, err := db.SnapshotHistory(ctx, "warszawa", "mokotow", models.OfferSale, models.NewDate(2026, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLatestSnapshot_NoneIsNil(t *testing.T) {
	db := newTestDB(t)

	got, err := db.LatestSnapshot(context.Background(), "warszawa", "ursynow", models.OfferSale)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotOnOrBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, day := range []int{5, 12, 19} {
		require.NoError(t, db.UpsertSnapshot(ctx, &models.DistrictStats{
			City: "poznan", District: "jezyce", Date: models.NewDate(2026, time.August, day),
			OfferType: models.OfferSale, AvgPriceM2: float64(10000 + day),
		}))
	}

	// Cutoff between rows picks the closest earlier one.
	got, err := db.SnapshotOnOrBefore(ctx, "poznan", "jezyce", models.OfferSale, models.NewDate(2026, time.August, 15))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-08-12", got.Date.String())

	// Cutoff exactly on a row includes it.
	got, err = db.SnapshotOnOrBefore(ctx, "poznan", "jezyce", models.OfferSale, models.NewDate(2026, time.August, 12))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-08-12", got.Date.String())

	// Cutoff before all history is nil.
	got, err = db.SnapshotOnOrBefore(ctx, "poznan", "jezyce", models.OfferSale, models.NewDate(2026, time.August, 1))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, day := range []int{3, 10, 17, 24} {
		require.NoError(t, db.UpsertSnapshot(ctx, &models.DistrictStats{
			City: "gdansk", District: "wrzeszcz", Date: models.NewDate(2026, time.August, day),
			OfferType: models.OfferRent, AvgPriceM2: float64(70 + day),
		}))
	}

	got, err := db.SnapshotHistory(ctx, "gdansk", "wrzeszcz", models.OfferRent, models.NewDate(2026, time.August, 10))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2026-08-10", got[0].Date.String())
	assert.Equal(t, "2026-08-24", got[2].Date.String())
}

func TestLatestSnapshotsByCity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seed := []struct {
		district string
		day      int
		avg      float64
	}{
		{"mokotow", 18, 17000},
		{"mokotow", 19, 17100},
		{"wola", 19, 15200},
		{"wola", 17, 15100},
	}
	for _, s := range seed {
		require.NoError(t, db.UpsertSnapshot(ctx, &models.DistrictStats{
			City: "warszawa", District: s.district, Date: models.NewDate(2026, time.August, s.day),
			OfferType: models.OfferSale, AvgPriceM2: s.avg,
		}))
	}
	// A rent snapshot must not leak into the sale answer.
	require.NoError(t, db.UpsertSnapshot(ctx, &models.DistrictStats{
		City: "warszawa", District: "mokotow", Date: models.NewDate(2026, time.August, 20),
		OfferType: models.OfferRent, AvgPriceM2: 82,
	}))

	got, err := db.LatestSnapshotsByCity(ctx, "warszawa", models.OfferSale)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mokotow", got[0].District)
	assert.Equal(t, "2026-08-19", got[0].Date.String())
	assert.Equal(t, 17100.0, got[0].AvgPriceM2)
	assert.Equal(t, "wola", got[1].District)
	assert.Equal(t, "2026-08-19", got[1].Date.String())
	assert.Equal(t, 15200.0, got[1].AvgPriceM2)
}
