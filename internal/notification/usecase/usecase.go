package usecase

import (
	"context"

	devicedomain "update-tracker/internal/device/domain"
	"update-tracker/internal/notification/domain"
	updatedomain "update-tracker/internal/update/domain"
	"update-tracker/pkg/fcm"
)

// Scanner produces the verdicts notifications are created from
type Scanner interface {
	ScanByUrgency(ctx context.Context, urgency string) (*updatedomain.ScanReport, error)
}

// DeviceLookup resolves the push token of a device
type DeviceLookup interface {
	Get(ctx context.Context, id string) (*devicedomain.DeviceRecord, error)
}

// Pusher delivers a notification to a device. *fcm.Client implements it.
type Pusher interface {
	SendToDevice(ctx context.Context, token string, notification fcm.NotificationData) error
}

// NotificationUsecase turns verdicts into deduplicated notifications and
// manages their lifecycle
type NotificationUsecase interface {
	// Create persists a PENDING notification for verdict. A notification
	// with the same dedup key suppresses it: nil is returned without error.
	Create(ctx context.Context, verdict *updatedomain.Verdict, message string) (*domain.Notification, error)

	MarkRead(ctx context.Context, id string) (*domain.Notification, error)
	MarkDismissed(ctx context.Context, id string) (*domain.Notification, error)

	// PurgeExpired deletes READ and DISMISSED notifications created more
	// than olderThanDays days ago and returns how many were removed
	PurgeExpired(ctx context.Context, olderThanDays int) (int, error)

	// DispatchToOutdated notifies every MANDATORY and DEPRECATED device and
	// returns the number of notifications created
	DispatchToOutdated(ctx context.Context) (int, error)

	// DeliverPending pushes PENDING notifications again and returns how many were sent
	DeliverPending(ctx context.Context) (int, error)

	Get(ctx context.Context, id string) (*domain.Notification, error)
	ListByDevice(ctx context.Context, deviceID string) ([]*domain.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)

	// ListUnreadByUser returns PENDING and SENT notifications of a user
	ListUnreadByUser(ctx context.Context, userID string) ([]*domain.Notification, error)

	Delete(ctx context.Context, id string) error
}
