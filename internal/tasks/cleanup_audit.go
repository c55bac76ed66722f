package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a task carries no retention.
const DefaultAuditRetentionDays = 30

// AuditEventCleaner deletes audit events older than a retention period.
type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask removes audit events older than the configured retention period.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for audit cleanup tasks.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Retention returns the task's retention as a duration.
func (t CleanupAuditEventsTask) Retention() time.Duration {
	days := t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// CleanupAuditEventsProcessor creates a processor function for CleanupAuditEventsTask.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}

		deleted, err := cleaner.DeleteOldEvents(ctx, task.Retention())
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}

		slog.Info("cleaned up audit events", "deleted", deleted, "retention", task.Retention())
		return nil
	}
}

// NewCleanupAuditEventsQueue creates a backlite queue for audit cleanup tasks.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}

// EnqueueAuditCleanup adds one cleanup task and returns its id.
func (c *Client) EnqueueAuditCleanup(ctx context.Context, retentionDays int) (string, error) {
	ids, err := c.Add(CleanupAuditEventsTask{RetentionDays: retentionDays}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue audit cleanup: %w", err)
	}
	if len(ids) == 0 {
		return "", errors.New("enqueue audit cleanup: no task id returned")
	}
	return ids[0], nil
}
