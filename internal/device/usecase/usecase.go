package usecase

import (
	"context"

	"update-tracker/internal/device/domain"
)

// DeviceUsecase is the device directory: the last known version and platform
// of every tracked device
type DeviceUsecase interface {
	Register(ctx context.Context, req RegisterDeviceRequest) (*domain.DeviceRecord, error)
	Get(ctx context.Context, id string) (*domain.DeviceRecord, error)

	// List returns the whole fleet, read straight from storage
	List(ctx context.Context) ([]*domain.DeviceRecord, error)

	// ListByUser returns the devices owned by a user (cached)
	ListByUser(ctx context.Context, userID string) ([]*domain.DeviceRecord, error)

	Update(ctx context.Context, id string, req UpdateDeviceRequest) (*domain.DeviceRecord, error)
	Delete(ctx context.Context, id string) error

	// CheckIn records the version a device reports and refreshes its last-seen time
	CheckIn(ctx context.Context, id string, req CheckInRequest) (*domain.DeviceRecord, error)

	// ApplyVersion advances a device from expected to target. It fails with a
	// Conflict when the device changed or vanished since it was read.
	ApplyVersion(ctx context.Context, id, expected, target string) error

	// Outdated lists devices of a platform not running its latest version,
	// optionally restricted to one user
	Outdated(ctx context.Context, userID, platform string) ([]*domain.DeviceRecord, error)

	// Distribution counts devices per version and platform (cached)
	Distribution(ctx context.Context) ([]*domain.VersionShare, error)
}

// RegisterDeviceRequest represents the fields of a new device
type RegisterDeviceRequest struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id" binding:"required"`
	Platform       string `json:"platform" binding:"required"`
	CurrentVersion string `json:"current_version" binding:"required"`
	PushToken      string `json:"push_token"`
}

// UpdateDeviceRequest represents the fields that can be updated
type UpdateDeviceRequest struct {
	UserID         *string `json:"user_id,omitempty"`
	Platform       *string `json:"platform,omitempty"`
	CurrentVersion *string `json:"current_version,omitempty"`
	PushToken      *string `json:"push_token,omitempty"`
}

// CheckInRequest is a version report sent by a device
type CheckInRequest struct {
	Version   string `json:"version" binding:"required"`
	PushToken string `json:"push_token"`
}
