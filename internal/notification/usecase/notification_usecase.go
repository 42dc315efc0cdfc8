package usecase

import (
	"context"
	"time"

	"update-tracker/internal/notification/domain"
	"update-tracker/internal/notification/repository"
	updatedomain "update-tracker/internal/update/domain"
	versiondomain "update-tracker/internal/version/domain"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/cache"
	"update-tracker/pkg/fcm"
	"update-tracker/pkg/metrics"

	log "github.com/sirupsen/logrus"
)

const (
	userKeyPrefix   = "notification:user:"
	unreadKeySuffix = ":unread"
	deviceKeyPrefix = "notification:device:"

	deliverBatchSize = 500
)

// dispatchUrgencies are the urgencies DispatchToOutdated notifies about
var dispatchUrgencies = []versiondomain.UpdateUrgency{versiondomain.UrgencyMandatory, versiondomain.UrgencyDeprecated}

// notificationUsecase implements NotificationUsecase interface
type notificationUsecase struct {
	repo    repository.NotificationRepository
	scanner Scanner
	devices DeviceLookup
	pusher  Pusher
	cache   cache.Cache
	metrics *metrics.Metrics
	log     *log.Entry
}

// NewNotificationUsecase creates a new instance of notificationUsecase.
// pusher may be nil, in which case notifications stay PENDING.
func NewNotificationUsecase(
	repo repository.NotificationRepository,
	scanner Scanner,
	devices DeviceLookup,
	pusher Pusher,
	c cache.Cache,
	m *metrics.Metrics,
	logger *log.Entry,
) NotificationUsecase {
	return &notificationUsecase{
		repo:    repo,
		scanner: scanner,
		devices: devices,
		pusher:  pusher,
		cache:   c,
		metrics: m,
		log:     logger,
	}
}

func (u *notificationUsecase) Create(ctx context.Context, verdict *updatedomain.Verdict, message string) (*domain.Notification, error) {
	if verdict == nil || verdict.DeviceID == "" {
		return nil, apperr.InvalidArgument("verdict with a device id is required")
	}
	if message == "" {
		message = Message(verdict.Urgency, verdict.TargetVersion)
	}

	n := &domain.Notification{
		DeviceID:       verdict.DeviceID,
		UserID:         verdict.UserID,
		CurrentVersion: verdict.CurrentVersion,
		TargetVersion:  verdict.TargetVersion,
		Urgency:        verdict.Urgency,
		Status:         domain.StatusPending,
		Message:        message,
		CreatedAt:      time.Now(),
	}

	inserted, err := u.repo.CreateIfAbsent(ctx, n)
	if err != nil {
		return nil, apperr.Internal("failed to create notification", err)
	}
	if !inserted {
		u.suppressed(ctx, n)
		return nil, nil
	}

	u.metrics.NotificationCreated(string(n.Urgency))
	u.invalidate(ctx, n)

	// Delivery is best effort; the record stays PENDING on failure.
	if u.deliver(ctx, n) {
		n.Status = domain.StatusSent
	}
	return n, nil
}

func (u *notificationUsecase) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	return u.transition(ctx, id, domain.StatusRead)
}

func (u *notificationUsecase) MarkDismissed(ctx context.Context, id string) (*domain.Notification, error) {
	return u.transition(ctx, id, domain.StatusDismissed)
}

// transition always re-stamps readAt, so repeating it on a terminal record
// succeeds and the last call wins.
func (u *notificationUsecase) transition(ctx context.Context, id string, status domain.Status) (*domain.Notification, error) {
	n, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	found, err := u.repo.SetStatus(ctx, id, status, &now)
	if err != nil {
		return nil, apperr.Internal("failed to update notification", err)
	}
	if !found {
		return nil, apperr.NotFound("notification %s not found", id)
	}

	n.Status = status
	n.ReadAt = &now
	u.invalidate(ctx, n)
	return n, nil
}

func (u *notificationUsecase) PurgeExpired(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, apperr.InvalidArgument("day count must be a non-negative integer, got %d", olderThanDays)
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	removed, err := u.repo.DeleteByStatusBefore(ctx, domain.TerminalStatuses, cutoff)
	if err != nil {
		return 0, apperr.Internal("failed to purge notifications", err)
	}

	u.invalidate(ctx, removed...)
	u.metrics.NotificationsPurged(int64(len(removed)))
	u.log.WithFields(log.Fields{"removed": len(removed), "older_than_days": olderThanDays}).Info("expired notifications purged")
	return len(removed), nil
}

func (u *notificationUsecase) DispatchToOutdated(ctx context.Context) (int, error) {
	created, failed := 0, 0
	for _, urgency := range dispatchUrgencies {
		report, err := u.scanner.ScanByUrgency(ctx, string(urgency))
		if err != nil {
			return created, err
		}

		for _, verdict := range report.Verdicts {
			if ctx.Err() != nil {
				return created, nil
			}
			n, err := u.Create(ctx, verdict, Message(verdict.Urgency, verdict.TargetVersion))
			if err != nil {
				failed++
				u.log.WithFields(log.Fields{"device_id": verdict.DeviceID, "kind": apperr.KindOf(err)}).WithError(err).
					Warn("skipping notification")
				continue
			}
			if n != nil {
				created++
			}
		}
	}

	u.log.WithFields(log.Fields{"created": created, "failed": failed}).Info("dispatched notifications to outdated devices")
	return created, nil
}

func (u *notificationUsecase) DeliverPending(ctx context.Context) (int, error) {
	if u.pusher == nil {
		return 0, nil
	}

	pending, err := u.repo.FindPending(ctx, deliverBatchSize)
	if err != nil {
		return 0, apperr.Internal("failed to load pending notifications", err)
	}

	sent := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			break
		}
		if u.deliver(ctx, n) {
			sent++
		}
	}
	return sent, nil
}

func (u *notificationUsecase) Get(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load notification", err)
	}
	if n == nil {
		return nil, apperr.NotFound("notification %s not found", id)
	}
	return n, nil
}

func (u *notificationUsecase) ListByDevice(ctx context.Context, deviceID string) ([]*domain.Notification, error) {
	return u.cachedList(ctx, deviceKeyPrefix+deviceID, func() ([]*domain.Notification, error) {
		return u.repo.ListByDevice(ctx, deviceID)
	})
}

func (u *notificationUsecase) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return u.cachedList(ctx, userKeyPrefix+userID, func() ([]*domain.Notification, error) {
		return u.repo.ListByUser(ctx, userID)
	})
}

func (u *notificationUsecase) ListUnreadByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return u.cachedList(ctx, userKeyPrefix+userID+unreadKeySuffix, func() ([]*domain.Notification, error) {
		return u.repo.ListByUser(ctx, userID, domain.UnreadStatuses...)
	})
}

func (u *notificationUsecase) Delete(ctx context.Context, id string) error {
	n, err := u.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := u.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete notification", err)
	}
	if !deleted {
		return apperr.NotFound("notification %s not found", id)
	}
	u.invalidate(ctx, n)
	return nil
}

// suppressed records a duplicate create. The existing record is only looked
// up when debug logging is on.
func (u *notificationUsecase) suppressed(ctx context.Context, n *domain.Notification) {
	u.metrics.NotificationSuppressed()
	if !u.log.Logger.IsLevelEnabled(log.DebugLevel) {
		return
	}

	entry := u.log.WithFields(log.Fields{"device_id": n.DeviceID, "target": n.TargetVersion, "urgency": n.Urgency})
	existing, err := u.repo.FindByDedupKey(ctx, n.Key())
	if err != nil {
		entry = entry.WithError(err)
	} else if existing != nil {
		entry = entry.WithFields(log.Fields{"existing_id": existing.ID, "existing_status": existing.Status})
	}
	entry.Debug("duplicate notification suppressed")
}

// deliver pushes n to its device and moves it to SENT. It reports whether
// the notification was sent; failures are logged and leave it PENDING.
func (u *notificationUsecase) deliver(ctx context.Context, n *domain.Notification) bool {
	if u.pusher == nil {
		return false
	}

	device, err := u.devices.Get(ctx, n.DeviceID)
	if err != nil {
		u.log.WithError(err).WithField("notification_id", n.ID).Debug("device unavailable for delivery")
		return false
	}
	if device.PushToken == "" {
		return false
	}

	err = u.pusher.SendToDevice(ctx, device.PushToken, fcm.NotificationData{
		Title: title(n.Urgency),
		Body:  n.Message,
		Data: map[string]string{
			"type":            "update_available",
			"notification_id": n.ID,
			"device_id":       n.DeviceID,
			"target_version":  n.TargetVersion,
			"urgency":         string(n.Urgency),
		},
	})
	if err != nil {
		u.metrics.Delivered("failed")
		u.log.WithError(err).WithField("notification_id", n.ID).Warn("push delivery failed")
		return false
	}
	u.metrics.Delivered("sent")

	moved, err := u.repo.MarkSent(ctx, n.ID)
	if err != nil {
		u.log.WithError(err).WithField("notification_id", n.ID).Error("failed to mark notification sent")
		return false
	}
	if moved {
		u.invalidate(ctx, n)
	}
	return moved
}

func (u *notificationUsecase) cachedList(ctx context.Context, key string, load func() ([]*domain.Notification, error)) ([]*domain.Notification, error) {
	var cached []*domain.Notification
	if u.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	notifications, err := load()
	if err != nil {
		return nil, apperr.Internal("failed to list notifications", err)
	}
	u.cache.Set(ctx, key, notifications)
	return notifications, nil
}

func (u *notificationUsecase) invalidate(ctx context.Context, notifications ...*domain.Notification) {
	seen := make(map[string]struct{})
	keys := make([]string, 0, 3*len(notifications))
	add := func(key string) {
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	for _, n := range notifications {
		add(userKeyPrefix + n.UserID)
		add(userKeyPrefix + n.UserID + unreadKeySuffix)
		add(deviceKeyPrefix + n.DeviceID)
	}
	if len(keys) > 0 {
		u.cache.Invalidate(ctx, keys...)
	}
}
