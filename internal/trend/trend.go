// Package trend derives price movement from snapshot history. Nothing here
// is persisted; a trend is recomputed from whatever history exists at read
// time.
package trend

import (
	"context"

	"cenometr/server/internal/models"
	"cenometr/server/internal/stats"
)

// Source provides the snapshot lookups trends are computed from. Satisfied
// by database.Database.
type Source interface {
	LatestSnapshot(ctx context.Context, city, district string, offer models.OfferType) (*models.DistrictStats, error)
	SnapshotOnOrBefore(ctx context.Context, city, district string, offer models.OfferType, cutoff models.Date) (*models.DistrictStats, error)
}

type Calculator struct {
	source       Source
	lookbackDays int
}

func NewCalculator(source Source, lookbackDays int) *Calculator {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Calculator{
		source:       source,
		lookbackDays: lookbackDays,
	}
}

// For computes the delta between the newest snapshot of a scope and its
// predecessor at least lookbackDays older. nil means no trend: either the
// scope has no snapshots at all, or history is too short to compare.
func (c *Calculator) For(ctx context.Context, city, district string, offer models.OfferType) (*models.TrendDelta, error) {
	current, err := c.source.LatestSnapshot(ctx, city, district, offer)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	return c.Relative(ctx, current)
}

// Relative computes the delta for an already-loaded current snapshot. The
// stats endpoint batch-loads the latest snapshots and calls this per row.
// A previous average of zero or less yields nil rather than a division by
// zero dressed up as a number.
func (c *Calculator) Relative(ctx context.Context, current *models.DistrictStats) (*models.TrendDelta, error) {
	cutoff := current.Date.AddDays(-c.lookbackDays)
	previous, err := c.source.SnapshotOnOrBefore(ctx, current.City, current.District, current.OfferType, cutoff)
	if err != nil {
		return nil, err
	}
	if previous == nil || previous.AvgPriceM2 <= 0 {
		return nil, nil
	}

	abs := current.AvgPriceM2 - previous.AvgPriceM2
	return &models.TrendDelta{
		ChangePercent:  stats.Round2(abs / previous.AvgPriceM2 * 100),
		ChangeAbsolute: stats.Round2(abs),
	}, nil
}

// WindowSummary compares the first and last snapshots of an explicit
// history window, as served by the history endpoint. It needs at least two
// points and a positive starting average.
func WindowSummary(history []models.DistrictStats) *models.TrendDelta {
	if len(history) < 2 {
		return nil
	}
	first := history[0]
	last := history[len(history)-1]
	if first.AvgPriceM2 <= 0 {
		return nil
	}

	abs := last.AvgPriceM2 - first.AvgPriceM2
	return &models.TrendDelta{
		ChangePercent:  stats.Round2(abs / first.AvgPriceM2 * 100),
		ChangeAbsolute: stats.Round2(abs),
	}
}
