package repository

import (
	"context"
	"time"

	"update-tracker/internal/notification/domain"
)

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateIfAbsent inserts n unless a notification with the same dedup key
	// exists. It reports whether a row was inserted; the check and the insert
	// are a single statement.
	CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error)

	// FindByID returns nil when no notification exists
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	FindByDedupKey(ctx context.Context, key domain.DedupKey) (*domain.Notification, error)

	// SetStatus moves a notification to status, stamping readAt when non-nil.
	// Reports whether the notification exists.
	SetStatus(ctx context.Context, id string, status domain.Status, readAt *time.Time) (bool, error)

	// MarkSent moves a PENDING notification to SENT and reports whether it did
	MarkSent(ctx context.Context, id string) (bool, error)

	ListByDevice(ctx context.Context, deviceID string) ([]*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, statuses ...domain.Status) ([]*domain.Notification, error)
	FindPending(ctx context.Context, limit int) ([]*domain.Notification, error)

	// DeleteByStatusBefore removes notifications in any of statuses created at
	// or before cutoff and returns the removed rows
	DeleteByStatusBefore(ctx context.Context, statuses []domain.Status, cutoff time.Time) ([]*domain.Notification, error)

	Delete(ctx context.Context, id string) (bool, error)
}
