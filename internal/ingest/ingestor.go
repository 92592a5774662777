// Package ingest turns raw scraped listings into canonical listing rows.
// It validates, resolves districts through the normalizer and upserts on
// external_id, so replaying a batch never duplicates data.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"cenometr/server/internal/database"
	"cenometr/server/internal/models"
	"cenometr/server/internal/normalize"
)

// Notifier receives listings accepted by an ingest batch. Implementations
// must not block; failures stay on their side of the fence.
type Notifier interface {
	NotifyAccepted(listings []models.Listing)
}

// Result summarizes what happened to one batch.
type Result struct {
	Inserted         int `json:"inserted"`
	DroppedUnmatched int `json:"dropped_unmatched"`
	DroppedInvalid   int `json:"dropped_invalid"`
}

// Ingestor validates and persists scraped listing batches. District
// candidate sets are built lazily per city from the taxonomy table and
// reused across batches.
type Ingestor struct {
	db         *database.Database
	logger     *logrus.Logger
	notifier   Notifier
	mu         sync.RWMutex
	candidates map[string]*normalize.CandidateSet
}

func NewIngestor(db *database.Database, logger *logrus.Logger) *Ingestor {
	return &Ingestor{
		db:         db,
		logger:     logger,
		candidates: make(map[string]*normalize.CandidateSet),
	}
}

// SetNotifier attaches an optional listener for accepted listings.
func (i *Ingestor) SetNotifier(n Notifier) {
	i.notifier = n
}

// InvalidateCandidates drops the cached per-city candidate sets. Call after
// seeding new district boundaries.
func (i *Ingestor) InvalidateCandidates() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.candidates = make(map[string]*normalize.CandidateSet)
}

func (i *Ingestor) candidateSet(ctx context.Context, city string) (*normalize.CandidateSet, error) {
	i.mu.RLock()
	set, ok := i.candidates[city]
	i.mu.RUnlock()
	if ok {
		return set, nil
	}

	districts, err := i.db.DistrictsByCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("failed to load district candidates for %s: %w", city, err)
	}

	set = normalize.NewCandidateSet(nil)
	for _, d := range districts {
		set.Add(d.District, d.District)
		if d.Name != "" {
			set.Add(d.Name, d.District)
		}
	}

	i.mu.Lock()
	i.candidates[city] = set
	i.mu.Unlock()
	return set, nil
}

// Ingest runs one batch: invalid records and records whose location cannot
// be resolved to a known district are dropped with a count, everything else
// is upserted keyed on external_id. A storage failure reports zero inserted;
// the whole batch can simply be retried.
func (i *Ingestor) Ingest(ctx context.Context, batch []models.ScrapedListing) (Result, error) {
	var result Result
	listings := make([]models.Listing, 0, len(batch))

	for _, raw := range batch {
		if raw.ExternalID == "" || raw.Price <= 0 || raw.SizeM2 <= 0 || !raw.OfferType.Valid() {
			result.DroppedInvalid++
			continue
		}

		city := normalize.Slug(raw.City)
		if city == "" {
			result.DroppedInvalid++
			continue
		}

		set, err := i.candidateSet(ctx, city)
		if err != nil {
			return Result{}, err
		}
		district, ok := set.Resolve(raw.District)
		if !ok {
			result.DroppedUnmatched++
			i.logger.WithFields(logrus.Fields{
				"city":     city,
				"location": raw.District,
			}).Debug("No district match for listing location")
			continue
		}

		listings = append(listings, models.NewListing(raw, city, district))
	}

	if len(listings) > 0 {
		inserted, err := i.db.UpsertListings(ctx, listings)
		if err != nil {
			return Result{DroppedUnmatched: result.DroppedUnmatched, DroppedInvalid: result.DroppedInvalid},
				fmt.Errorf("failed to ingest batch: %w", err)
		}
		result.Inserted = int(inserted)

		if i.notifier != nil {
			accepted := make([]models.Listing, len(listings))
			copy(accepted, listings)
			go i.notifier.NotifyAccepted(accepted)
		}
	}

	i.logger.WithFields(logrus.Fields{
		"batch_size":        len(batch),
		"inserted":          result.Inserted,
		"dropped_unmatched": result.DroppedUnmatched,
		"dropped_invalid":   result.DroppedInvalid,
	}).Debug("Ingested listing batch")

	return result, nil
}
