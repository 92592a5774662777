// Package aggregate computes the daily per-district price statistics from
// the trailing listing window. One (city, district, offer type, date) scope
// is one task; tasks are independent and fan out over a bounded worker pool.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/database"
	"cenometr/server/internal/models"
	"cenometr/server/internal/stats"
)

// Task identifies one independent aggregation unit.
type Task struct {
	City     string
	District string
	Offer    models.OfferType
}

// RunResult counts what one aggregation pass did.
type RunResult struct {
	Written int
	Skipped int
	Failed  int
}

type Aggregator struct {
	db     *database.Database
	logger *logrus.Logger
	config *config.Config
}

func NewAggregator(db *database.Database, config *config.Config, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		db:     db,
		logger: logger,
		config: config,
	}
}

// Run aggregates every (district, offer type) pair for asOf. A failing task
// is counted and logged while the rest proceed; only failing to list the
// taxonomy aborts the whole run. Cancelling ctx stops feeding new tasks, so
// a partial run leaves whole snapshots, never half-written ones.
func (a *Aggregator) Run(ctx context.Context, asOf models.Date) (RunResult, error) {
	districts, err := a.db.AllDistricts(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to list districts: %w", err)
	}
	if len(districts) == 0 {
		a.logger.Warn("No districts seeded, nothing to aggregate")
		return RunResult{}, nil
	}

	workers := a.config.Aggregation.WorkerCount
	if workers < 1 {
		workers = 1
	}

	var (
		tasks  = make(chan Task)
		mu     sync.Mutex
		result RunResult
		wg     sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				written, err := a.runTask(ctx, task, asOf)
				mu.Lock()
				switch {
				case err != nil:
					result.Failed++
				case written:
					result.Written++
				default:
					result.Skipped++
				}
				mu.Unlock()

				if err != nil {
					a.logger.WithError(err).WithFields(logrus.Fields{
						"city":       task.City,
						"district":   task.District,
						"offer_type": task.Offer,
					}).Error("Aggregation task failed")
				}
			}
		}()
	}

feed:
	for _, d := range districts {
		for _, offer := range models.OfferTypes {
			select {
			case tasks <- Task{City: d.City, District: d.District, Offer: offer}:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(tasks)
	wg.Wait()

	a.logger.WithFields(logrus.Fields{
		"date":    asOf.String(),
		"written": result.Written,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Aggregation run finished")

	return result, ctx.Err()
}

// runTask computes and writes one snapshot under the per-task timeout.
// Writes that hit a locked database are retried with a growing delay;
// anything else fails the task immediately.
func (a *Aggregator) runTask(ctx context.Context, task Task, asOf models.Date) (bool, error) {
	timeout := time.Duration(a.config.Aggregation.TaskTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := a.Snapshot(taskCtx, task.City, task.District, task.Offer, asOf)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}

	for attempt := 0; ; attempt++ {
		err = a.db.UpsertSnapshot(taskCtx, snap)
		if err == nil {
			return true, nil
		}
		if attempt >= a.config.Aggregation.MaxRetries || !database.IsRetryable(err) {
			return false, err
		}
		delay := time.Duration(a.config.Aggregation.RetryDelay*(attempt+1)) * time.Second
		a.logger.WithError(err).Warnf("Snapshot write hit a locked database, retrying in %s", delay)
		select {
		case <-time.After(delay):
		case <-taskCtx.Done():
			return false, taskCtx.Err()
		}
	}
}

// Snapshot computes the statistics row for one scope as of a date, or nil
// when the window holds no listings. The result depends only on the stored
// rows: re-running a date recomputes the identical snapshot.
func (a *Aggregator) Snapshot(ctx context.Context, city, district string, offer models.OfferType, asOf models.Date) (*models.DistrictStats, error) {
	windowDays := a.config.Aggregation.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	windowEnd := asOf.NextDay()
	windowStart := windowEnd.AddDate(0, 0, -windowDays)

	listings, err := a.db.ListingsInWindow(ctx, city, district, offer, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, nil
	}

	perArea := make([]float64, len(listings))
	sizes := make([]float64, len(listings))
	prices := make([]float64, len(listings))
	rooms := make([]*int, len(listings))

	// New listings are anchored to the asOf calendar day, not the wall
	// clock, so backfilled dates come out the same as live runs.
	dayStart := asOf.Time
	newListings := 0

	for idx, l := range listings {
		perArea[idx] = l.PricePerArea
		sizes[idx] = l.SizeM2
		prices[idx] = l.Price
		rooms[idx] = l.Rooms
		if !l.ScrapedAt.Before(dayStart) {
			newListings++
		}
	}

	sorted := stats.SortedCopy(perArea)
	mean := stats.Mean(perArea)
	hist := stats.BucketRooms(rooms)

	return &models.DistrictStats{
		City:            city,
		District:        district,
		Date:            asOf,
		OfferType:       offer,
		AvgPriceM2:      stats.Round2(mean),
		MedianPriceM2:   stats.Round2(stats.Percentile(sorted, 50)),
		MinPriceM2:      stats.Round2(sorted[0]),
		MaxPriceM2:      stats.Round2(sorted[len(sorted)-1]),
		P10PriceM2:      stats.Round2(stats.Percentile(sorted, 10)),
		P90PriceM2:      stats.Round2(stats.Percentile(sorted, 90)),
		StddevPriceM2:   stats.Round2(stats.StdDev(perArea, mean)),
		ListingCount:    len(listings),
		NewListings:     newListings,
		AvgSizeM2:       stats.Round2(stats.Mean(sizes)),
		Count1Room:      hist.One,
		Count2Rooms:     hist.Two,
		Count3Rooms:     hist.Three,
		Count4PlusRooms: hist.FourPlus,
		AvgPrice:        stats.Round2(stats.Mean(prices)),
	}, nil
}

// PurgeExpired deletes listings whose last scrape fell out of the retention
// window. Snapshot history is never touched, so old statistics survive the
// listings they were computed from.
func (a *Aggregator) PurgeExpired(ctx context.Context) (int64, error) {
	days := a.config.Retention.ListingDays
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	deleted, err := a.db.DeleteListingsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		a.logger.WithField("deleted", deleted).Info("Purged expired listings")
	}
	return deleted, nil
}
