// Package scheduler triggers the daily aggregation and retention jobs.
package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/aggregate"
	"cenometr/server/internal/models"
)

// Scheduler runs the aggregation pass once a day at the configured UTC hour
// and purges expired listings right after it.
type Scheduler struct {
	aggregator *aggregate.Aggregator
	logger     *logrus.Logger
	config     *config.Config
	stopChan   chan struct{}
	wg         sync.WaitGroup
	jobMutex   sync.Mutex // Ensures sequential job execution
	ctx        context.Context
	cancel     context.CancelFunc
	lastRun    models.Date
}

// NewScheduler creates a new scheduler
func NewScheduler(aggregator *aggregate.Aggregator, config *config.Config, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		aggregator: aggregator,
		logger:     logger,
		config:     config,
		stopChan:   make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	if s.config.Aggregation.RunOnStartup {
		go func() {
			s.logger.Info("Running startup aggregation")
			s.runDailyJobs(models.Today())
		}()
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t.UTC())
		}
	}
}

// executeScheduledJobs fires the daily run when the clock crosses the
// configured hour.
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	if t.Hour() != s.config.Aggregation.DailyHour || t.Minute() != 0 {
		return
	}
	s.runDailyJobs(models.DateOf(t))
}

// runDailyJobs aggregates one day and purges expired listings. jobMutex
// keeps overlapping triggers sequential, and the lastRun guard keeps a slow
// run from being repeated for the same day.
func (s *Scheduler) runDailyJobs(asOf models.Date) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if s.lastRun.Equal(asOf) {
		return
	}

	s.logger.WithField("date", asOf.String()).Info("Starting daily aggregation job")

	result, err := s.aggregator.Run(s.ctx, asOf)
	if err != nil {
		s.logger.WithError(err).Error("Daily aggregation failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"date":    asOf.String(),
		"written": result.Written,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Daily aggregation finished")
	s.lastRun = asOf

	if _, err := s.aggregator.PurgeExpired(s.ctx); err != nil {
		s.logger.WithError(err).Error("Listing purge failed")
	}
}

// Stop cancels any job in flight and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	close(s.stopChan)
	s.wg.Wait()
}
