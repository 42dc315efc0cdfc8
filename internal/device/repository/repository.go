package repository

import (
	"context"
	"errors"
	"time"

	"update-tracker/internal/device/domain"
	versiondomain "update-tracker/internal/version/domain"
)

// ErrVersionChanged is returned by ApplyVersion when the device no longer
// runs the expected version or no longer exists
var ErrVersionChanged = errors.New("device version changed or device removed")

// ErrDuplicate is returned by Create when the device id is taken
var ErrDuplicate = errors.New("device already registered")

// DeviceRepository defines the interface for device data access
type DeviceRepository interface {
	Create(ctx context.Context, device *domain.DeviceRecord) error
	Save(ctx context.Context, device *domain.DeviceRecord) error
	Delete(ctx context.Context, id string) (bool, error)

	// FindByID returns nil when no device exists
	FindByID(ctx context.Context, id string) (*domain.DeviceRecord, error)
	FindAll(ctx context.Context) ([]*domain.DeviceRecord, error)
	FindByUser(ctx context.Context, userID string) ([]*domain.DeviceRecord, error)
	FindByPlatform(ctx context.Context, platform versiondomain.Platform) ([]*domain.DeviceRecord, error)

	// CheckIn records a reported version and refreshes last_seen. The push
	// token is only replaced when non-empty. Reports whether the device exists.
	CheckIn(ctx context.Context, id, version, pushToken string, seenAt time.Time) (bool, error)

	// ApplyVersion moves a device from expected to target in a single
	// conditional update, failing with ErrVersionChanged when nothing matched
	ApplyVersion(ctx context.Context, id, expected, target string, seenAt time.Time) error

	// Distribution counts devices per (version, platform)
	Distribution(ctx context.Context) ([]*domain.VersionShare, error)
}
