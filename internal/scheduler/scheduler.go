// Package scheduler re-runs background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work. It receives a context that is canceled
// when the scheduler stops.
type Job func(ctx context.Context)

// Scheduler runs a single job on a cron schedule. Runs never overlap: a tick
// that fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	job     Job
	spec    string
	entry   cron.EntryID
	running atomic.Bool
}

// New parses spec (standard five-field cron or descriptors such as
// "@every 15m") in the named time zone.
func New(spec, timezone string, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is required")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid timezone %q: %w", timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
		job:    job,
		spec:   spec,
	}

	entry, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	s.entry = entry

	return s, nil
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("Skipping scheduled run; previous run still in progress", "schedule", s.spec)
		return
	}
	defer s.running.Store(false)

	started := time.Now()
	slog.Info("Scheduled run starting", "schedule", s.spec)
	s.job(s.ctx)
	slog.Info("Scheduled run finished", "schedule", s.spec, "duration", time.Since(started))
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started", "schedule", s.spec, "next", s.Next())
}

// Next reports when the job will run next. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop prevents further runs, cancels the running job's context and waits for
// it to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}
