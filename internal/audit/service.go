// Package audit records authentication events for later review.
//
// Events are written in the background so a slow database never delays a
// login or signup response. Call Wait during shutdown to flush pending writes.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/watchthis/user-service/internal/database/audit"
	"github.com/watchthis/user-service/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// AuthEvent describes a single authentication attempt.
type AuthEvent struct {
	Action    entities.AuditAction
	UserID    string
	Username  string
	IPAddress string
	UserAgent string
	Err       error
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			slog.Error("failed to log audit event", "action", event.Action, "error", err)
		}
	}()
}

// LogAuth records an authentication event. A non-nil Err marks it failed.
func (s *Service) LogAuth(e AuthEvent) {
	if s == nil {
		return
	}
	event := &entities.AuditEvent{
		UserID:    e.UserID,
		Username:  truncate(e.Username, 30),
		Action:    e.Action,
		IPAddress: truncate(e.IPAddress, 45),
		UserAgent: truncate(e.UserAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if e.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(e.Err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// Wait blocks until every background write has finished.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.pending.Wait()
}

// truncate shortens s to at most maxLen characters, never splitting a rune.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
