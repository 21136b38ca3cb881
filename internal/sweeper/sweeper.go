// Package sweeper expires stale pending transactions on a schedule.
package sweeper

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/diamondsy/diamond-store/internal/storage"
)

// Sweeper periodically transitions stale pending transactions to expired
type Sweeper struct {
	cron    *cron.Cron
	storage *storage.Storage
	horizon time.Duration
	log     *slog.Logger
}

// New creates a sweeper with the given pending-age horizon
func New(store *storage.Storage, horizon time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		cron:    cron.New(),
		storage: store,
		horizon: horizon,
		log:     log,
	}
}

// Start schedules the sweep. The schedule is a standard cron expression;
// the default is hourly.
func (s *Sweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.Sweep(time.Now())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("expiry sweeper started", "schedule", schedule, "horizon", s.horizon)
	return nil
}

// Sweep runs one expiry pass and returns the number of expired records.
// Per-record failures are isolated inside the storage call; only a failure
// to enumerate candidates surfaces here.
func (s *Sweeper) Sweep(now time.Time) int {
	count, err := s.storage.ExpireStaleTransactions(now, s.horizon)
	if err != nil {
		s.log.Error("expiry sweep", "error", err)
		return 0
	}
	if count > 0 {
		s.log.Info("expiry sweep complete", "expired", count)
	}
	return count
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
