// Package scheduler runs the background jobs of the reminder worker on
// cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	applog "financitos/internal/log"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs. Jobs are registered by name so a job
// can be moved to a new schedule while running.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
	specs   map[string]string
}

// New creates a scheduler. ctx is handed to every job run; timeout bounds
// a single run (0 means unbounded).
func New(ctx context.Context, loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		ctx:     ctx,
		timeout: timeout,
		entries: make(map[string]cron.EntryID),
		specs:   make(map[string]string),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.InfoContext(s.ctx, "Scheduler started", applog.FieldComponent, applog.ComponentScheduler)
}

// Stop stops the scheduler and waits for running jobs or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	slog.InfoContext(ctx, "Scheduler stopped", applog.FieldComponent, applog.ComponentScheduler)
}

// AddJob registers job under its name. Schedule examples:
//   - "30 8 * * *"  every day at 08:30
//   - "@daily"      midnight
//   - "@every 1m"   every minute
//
// Registering a name again replaces the previous entry.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), schedule, err)
	}
	if old, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(old)
	}
	s.entries[job.Name()] = id
	s.specs[job.Name()] = schedule

	slog.InfoContext(s.ctx, "Job registered",
		applog.FieldComponent, applog.ComponentScheduler,
		"job", job.Name(),
		"schedule", schedule)
	return nil
}

// RemoveJob unregisters the named job; unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
		delete(s.specs, name)
		slog.InfoContext(s.ctx, "Job removed", applog.FieldComponent, applog.ComponentScheduler, "job", name)
	}
}

// Schedule returns the spec the named job is registered with.
func (s *Scheduler) Schedule(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.specs[name]
	return spec, ok
}

// Next reports the next activation of the named job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := s.cron.Entry(id)
	return e.Next, e.Valid()
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	slog.InfoContext(s.ctx, "Running job immediately", applog.FieldComponent, applog.ComponentScheduler, "job", job.Name())
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.DebugContext(ctx, "Running job", applog.FieldComponent, applog.ComponentScheduler, "job", job.Name())
	if err := job.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "Job failed",
			applog.FieldComponent, applog.ComponentScheduler,
			"job", job.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return err
	}
	slog.DebugContext(ctx, "Job completed",
		applog.FieldComponent, applog.ComponentScheduler,
		"job", job.Name(),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// DailySpec turns an HH:MM time of day into a five-field cron spec.
func DailySpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil || len(hhmm) != 5 {
		return "", fmt.Errorf("invalid time of day %q", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
