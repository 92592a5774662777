package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"cenometr/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ListingQueue is the in-memory buffer between the ingest endpoint and the
// batch processor workers. Each pushed batch is consumed exactly once.
type ListingQueue struct {
	items   chan []models.ScrapedListing
	maxSize int
	closed  bool
	mu      sync.RWMutex
	logger  *logrus.Logger
}

// NewListingQueue creates a queue holding up to bufferSize pending batches.
func NewListingQueue(bufferSize int, logger *logrus.Logger) *ListingQueue {
	return &ListingQueue{
		items:   make(chan []models.ScrapedListing, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push enqueues a batch without blocking. A full queue returns ErrQueueFull
// so the HTTP layer can tell callers to back off instead of stalling them.
func (q *ListingQueue) Push(batch []models.ScrapedListing) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Next blocks until a batch is available or the queue stops producing. ok is
// false once the queue is closed and drained, or when ctx is cancelled;
// workers treat that as a shutdown signal.
func (q *ListingQueue) Next(ctx context.Context) (batch []models.ScrapedListing, ok bool) {
	select {
	case batch, ok := <-q.items:
		return batch, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Close stops the queue. Pending batches already in the buffer are still
// delivered to workers before their Next calls report closure.
func (q *ListingQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	return nil
}

// Len returns the current number of buffered batches.
func (q *ListingQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ListingQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
