package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/watchthis/user-service/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvents retrieves paginated audit events, ordered by most recent first.
// An empty userID returns events for every user.
func (r *Repository) GetEvents(ctx context.Context, userID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsByAction retrieves audit events for one action.
func (r *Repository) GetEventsByAction(ctx context.Context, action entities.AuditAction, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []entities.AuditEvent
	err := r.db.WithContext(ctx).
		Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
