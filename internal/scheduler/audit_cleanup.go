package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// AuditCleanupEnqueuer hands cleanup work to the task queue.
type AuditCleanupEnqueuer interface {
	EnqueueAuditCleanup(ctx context.Context, retentionDays int) (string, error)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// AuditCleanupScheduler periodically enqueues removal of expired audit events.
type AuditCleanupScheduler struct {
	enqueuer      AuditCleanupEnqueuer
	schedule      string
	retentionDays int

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewAuditCleanupScheduler creates a scheduler instance. It does nothing until Start.
func NewAuditCleanupScheduler(enqueuer AuditCleanupEnqueuer, schedule string, retentionDays int) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		enqueuer:      enqueuer,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the cleanup job. An empty schedule disables the scheduler.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		slog.Info("audit cleanup scheduler disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.enqueue(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	slog.Info("audit cleanup scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
		"next_run", s.cron.Entry(entryID).Next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler, waiting for a running job to return.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	slog.Info("audit cleanup scheduler stopped")
}

// RunNow enqueues a cleanup immediately.
func (s *AuditCleanupScheduler) RunNow(ctx context.Context) error {
	_, err := s.enqueuer.EnqueueAuditCleanup(ctx, s.retentionDays)
	return err
}

// IsRunning returns whether the scheduler is active
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next cleanup will be enqueued, or nil when stopped.
func (s *AuditCleanupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

func (s *AuditCleanupScheduler) enqueue(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	id, err := s.enqueuer.EnqueueAuditCleanup(ctx, s.retentionDays)
	if err != nil {
		slog.Error("failed to enqueue audit cleanup", "error", err)
		return
	}
	slog.Info("audit cleanup enqueued", "task_id", id)
}
