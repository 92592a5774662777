package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/ingest"
	"cenometr/server/internal/models"
	"cenometr/server/internal/queue"
)

// Sink consumes validated listing batches. Satisfied by ingest.Ingestor.
type Sink interface {
	Ingest(ctx context.Context, batch []models.ScrapedListing) (ingest.Result, error)
}

// BatchProcessor drains scraped-listing batches from the queue and runs
// them through the sink. Each batch is handled by exactly one worker; the
// upsert underneath is idempotent, so retrying a failed batch cannot
// duplicate rows.
type BatchProcessor struct {
	sink      Sink
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ListingQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(sink Sink, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		sink:   sink,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing batches from the queue
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.Ingest.WorkerCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop gracefully shuts down the processor
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// processLoop handles the continuous processing of batches
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for {
		batch, ok := p.queue.Next(p.ctx)
		if !ok {
			return
		}
		if err := p.processBatch(batch); err != nil {
			p.logger.WithError(err).WithField("batch_size", len(batch)).
				Error("Dropping batch after exhausting retries")
		}
	}
}

// processBatch handles a single batch of listings with retry logic
func (p *BatchProcessor) processBatch(batch []models.ScrapedListing) error {
	var err error
	for attempt := 0; attempt <= p.config.Ingest.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.Ingest.MaxRetries)
			select {
			case <-time.After(time.Duration(p.config.Ingest.RetryDelay) * time.Second):
			case <-p.ctx.Done():
				return p.ctx.Err()
			}
		}

		var result ingest.Result
		result, err = p.sink.Ingest(p.ctx, batch)
		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"batch_size":        len(batch),
				"inserted":          result.Inserted,
				"dropped_unmatched": result.DroppedUnmatched,
				"dropped_invalid":   result.DroppedInvalid,
			}).Info("Processed listing batch")
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.Ingest.MaxRetries, err)
}
