package repository

import (
	"context"
	"errors"
	"time"

	"update-tracker/internal/device/domain"
	versiondomain "update-tracker/internal/version/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormDeviceRepository implements DeviceRepository using GORM
type gormDeviceRepository struct {
	db *gorm.DB
}

// NewGormDeviceRepository creates a new GORM-based DeviceRepository
func NewGormDeviceRepository(db *gorm.DB) DeviceRepository {
	db.AutoMigrate(&domain.DeviceRecord{})
	return &gormDeviceRepository{db: db}
}

func (r *gormDeviceRepository) Create(ctx context.Context, device *domain.DeviceRecord) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now
	if device.LastSeen.IsZero() {
		device.LastSeen = now
	}
	err := r.db.WithContext(ctx).Create(device).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *gormDeviceRepository) Save(ctx context.Context, device *domain.DeviceRecord) error {
	device.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(device).Error
}

func (r *gormDeviceRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.DeviceRecord{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormDeviceRepository) FindByID(ctx context.Context, id string) (*domain.DeviceRecord, error) {
	var device domain.DeviceRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *gormDeviceRepository) FindAll(ctx context.Context) ([]*domain.DeviceRecord, error) {
	var devices []*domain.DeviceRecord
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&devices).Error
	return devices, err
}

func (r *gormDeviceRepository) FindByUser(ctx context.Context, userID string) ([]*domain.DeviceRecord, error) {
	var devices []*domain.DeviceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen DESC").
		Find(&devices).Error
	return devices, err
}

func (r *gormDeviceRepository) FindByPlatform(ctx context.Context, platform versiondomain.Platform) ([]*domain.DeviceRecord, error) {
	var devices []*domain.DeviceRecord
	err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Order("created_at ASC").
		Find(&devices).Error
	return devices, err
}

func (r *gormDeviceRepository) CheckIn(ctx context.Context, id, version, pushToken string, seenAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"current_version": version,
		"last_seen":       seenAt,
		"updated_at":      time.Now(),
	}
	if pushToken != "" {
		updates["push_token"] = pushToken
	}

	result := r.db.WithContext(ctx).
		Model(&domain.DeviceRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormDeviceRepository) ApplyVersion(ctx context.Context, id, expected, target string, seenAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.DeviceRecord{}).
		Where("id = ? AND current_version = ?", id, expected).
		Updates(map[string]interface{}{
			"current_version": target,
			"last_seen":       seenAt,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionChanged
	}
	return nil
}

func (r *gormDeviceRepository) Distribution(ctx context.Context) ([]*domain.VersionShare, error) {
	var shares []*domain.VersionShare
	err := r.db.WithContext(ctx).
		Model(&domain.DeviceRecord{}).
		Select("current_version AS version, platform, COUNT(*) AS devices").
		Group("current_version, platform").
		Order("platform ASC, devices DESC").
		Scan(&shares).Error
	return shares, err
}
