package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a retention job on a cron schedule. A tick is skipped
// when the previous run has not finished yet.
type Scheduler struct {
	schedule string
	job      func(ctx context.Context)
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	inJob   sync.Mutex
}

// NewScheduler creates a scheduler that invokes job per the cron
// expression in schedule.
func NewScheduler(schedule string, job func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		job:      job,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "daemon.scheduler"),
	}
}

// Start begins scheduled runs. It returns once the schedule is armed;
// jobs fire on a background goroutine until ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runJob(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runJob(ctx context.Context) {
	if !s.inJob.TryLock() {
		s.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	defer s.inJob.Unlock()

	s.job(ctx)
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		stopped := s.cron.Stop()
		<-stopped.Done()
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
