package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
)

// Scheduler runs refresh cycles on a fixed interval.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger

	refreshEntry cron.EntryID
}

// NewScheduler creates a Scheduler that runs eng.RunRefresh every interval.
func NewScheduler(
	eng *Engine,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	id, err := c.AddFunc("@every "+interval.String(), s.runRefresh)
	if err != nil {
		return nil, err
	}
	s.refreshEntry = id

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
	s.SyncNextRunTimestamp()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// SyncNextRunTimestamp publishes the next scheduled refresh time.
func (s *Scheduler) SyncNextRunTimestamp() {
	next := s.cron.Entry(s.refreshEntry).Next
	if next.IsZero() {
		return
	}
	metrics.SchedulerNextRefreshTimestamp.Set(float64(next.Unix()))
}

func (s *Scheduler) runRefresh() {
	defer s.SyncNextRunTimestamp()

	s.log.Info("scheduled refresh starting")
	if _, err := s.engine.RunRefresh(context.Background()); err != nil {
		s.log.Error("scheduled refresh failed", "error", err)
	}
}
