package repository

import (
	"context"
	"errors"
	"time"

	"update-tracker/internal/version/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormVersionRepository implements VersionRepository using GORM
type gormVersionRepository struct {
	db *gorm.DB
}

// NewGormVersionRepository creates a new GORM-based VersionRepository
func NewGormVersionRepository(db *gorm.DB) VersionRepository {
	db.AutoMigrate(&domain.VersionRecord{})
	return &gormVersionRepository{db: db}
}

func (r *gormVersionRepository) Create(ctx context.Context, record *domain.VersionRecord, exclusiveActive bool) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return translate(err)
		}
		if exclusiveActive && record.Active {
			return deactivateSiblings(tx, record, now)
		}
		return nil
	})
}

func (r *gormVersionRepository) Update(ctx context.Context, record *domain.VersionRecord, exclusiveActive bool) error {
	now := time.Now()
	record.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(record).Error; err != nil {
			return translate(err)
		}
		if exclusiveActive && record.Active {
			return deactivateSiblings(tx, record, now)
		}
		return nil
	})
}

func deactivateSiblings(tx *gorm.DB, record *domain.VersionRecord, now time.Time) error {
	return tx.Model(&domain.VersionRecord{}).
		Where("platform = ? AND id <> ? AND active = ?", record.Platform, record.ID, true).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": now,
		}).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *gormVersionRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.VersionRecord{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormVersionRepository) FindByID(ctx context.Context, id string) (*domain.VersionRecord, error) {
	var record domain.VersionRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormVersionRepository) FindByVersion(ctx context.Context, version string, platform domain.Platform) (*domain.VersionRecord, error) {
	var record domain.VersionRecord
	err := r.db.WithContext(ctx).
		Where("version = ? AND platform = ?", version, platform).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormVersionRepository) FindLatestActive(ctx context.Context, platform domain.Platform) (*domain.VersionRecord, error) {
	var records []*domain.VersionRecord
	err := r.db.WithContext(ctx).
		Where("platform = ? AND active = ?", platform, true).
		Order("released_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return domain.PickLatest(records), nil
}

func (r *gormVersionRepository) FindAll(ctx context.Context, platform *domain.Platform) ([]*domain.VersionRecord, error) {
	var records []*domain.VersionRecord
	query := r.db.WithContext(ctx).Model(&domain.VersionRecord{})
	if platform != nil {
		query = query.Where("platform = ?", *platform)
	}
	err := query.Order("platform ASC, released_at DESC").Find(&records).Error
	return records, err
}
