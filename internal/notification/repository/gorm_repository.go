package repository

import (
	"context"
	"errors"
	"time"

	"update-tracker/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormNotificationRepository implements NotificationRepository using GORM
type gormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GORM-based NotificationRepository
func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	db.AutoMigrate(&domain.Notification{})
	return &gormNotificationRepository{db: db}
}

// CreateIfAbsent relies on idx_notification_dedup:
// INSERT ... ON CONFLICT (device_id, current_version, target_version, urgency) DO NOTHING
func (r *gormNotificationRepository) CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "device_id"},
			{Name: "current_version"},
			{Name: "target_version"},
			{Name: "urgency"},
		},
		DoNothing: true,
	}).Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormNotificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *gormNotificationRepository) FindByDedupKey(ctx context.Context, key domain.DedupKey) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND current_version = ? AND target_version = ? AND urgency = ?",
			key.DeviceID, key.CurrentVersion, key.TargetVersion, key.Urgency).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *gormNotificationRepository) SetStatus(ctx context.Context, id string, status domain.Status, readAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if readAt != nil {
		updates["read_at"] = *readAt
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormNotificationRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]interface{}{
			"status":     domain.StatusSent,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormNotificationRepository) ListByDevice(ctx context.Context, deviceID string) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *gormNotificationRepository) ListByUser(ctx context.Context, userID string, statuses ...domain.Status) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *gormNotificationRepository) FindPending(ctx context.Context, limit int) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *gormNotificationRepository) DeleteByStatusBefore(ctx context.Context, statuses []domain.Status, cutoff time.Time) ([]*domain.Notification, error) {
	var expired []*domain.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "device_id", "user_id").
			Where("status IN ? AND created_at <= ?", statuses, cutoff).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]string, 0, len(expired))
		for _, n := range expired {
			ids = append(ids, n.ID)
		}
		// Status is re-checked so a row moved out of a terminal state
		// meanwhile is kept.
		return tx.Where("id IN ? AND status IN ?", ids, statuses).
			Delete(&domain.Notification{}).Error
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *gormNotificationRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Notification{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
