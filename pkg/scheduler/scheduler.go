// Package scheduler runs the periodic maintenance jobs: the daily media
// reconciliation and the hourly temp file sweep.
//
// Jobs registered here call exactly the same functions the admin API
// triggers manually; the scheduler adds timing, nothing else. Overlap
// protection lives inside the jobs themselves (the engine and janitor
// each carry their own in-process guard), so a tick that lands during a
// manual run simply logs and yields.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmarchetti/vetrina/internal/logger"
)

// Parser accepts standard 5-field cron expressions plus descriptors
// like @daily and @every.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is a schedulable unit of work. Errors are logged, not propagated:
// a failed tick must not stop future ticks.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with named jobs and a Start/Stop lifecycle.
type Scheduler struct {
	cron       *cron.Cron
	runTimeout time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
	started bool
}

// New creates a scheduler. runTimeout bounds each job invocation;
// zero means no per-job timeout.
func New(runTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithParser(Parser)),
		runTimeout: runTimeout,
		entries:    make(map[string]cron.EntryID),
	}
}

// AddJob registers a named job under a cron expression.
// Returns an error for invalid expressions or duplicate names.
func (s *Scheduler) AddJob(name, expr string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	id, err := s.cron.AddFunc(expr, func() {
		s.runJob(name, job)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for job %q: %w", expr, name, err)
	}

	s.entries[name] = id
	logger.Debug("scheduled job registered", "job", name, "schedule", expr)
	return nil
}

func (s *Scheduler) runJob(name string, job Job) {
	ctx := context.Background()
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := time.Now()
	logger.Debug("scheduled job started", "job", name)

	if err := job(ctx); err != nil {
		logger.Error("scheduled job failed", "job", name, "duration", time.Since(start), "error", err)
		return
	}
	logger.Info("scheduled job finished", "job", name, "duration", time.Since(start))
}

// Start begins executing registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	logger.Info("scheduler started", "jobs", len(s.entries))
}

// Stop stops the scheduler and waits for in-flight jobs to finish or the
// context to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop().Done()
	select {
	case <-done:
		logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown interrupted: %w", ctx.Err())
	}
}

// NextRun returns the next scheduled time for a named job.
// The zero time means the job is unknown or the scheduler is stopped.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}
