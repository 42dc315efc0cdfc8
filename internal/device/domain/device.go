package domain

import (
	"time"

	versiondomain "update-tracker/internal/version/domain"
)

// DeviceRecord is a tracked device and the version it last reported
type DeviceRecord struct {
	ID             string                 `json:"id" gorm:"primaryKey"`
	UserID         string                 `json:"user_id" gorm:"index;not null"`
	Platform       versiondomain.Platform `json:"platform" gorm:"size:50;not null;index"`
	CurrentVersion string                 `json:"current_version" gorm:"size:100;not null"`
	PushToken      string                 `json:"-" gorm:"type:text"` // FCM registration token, never rendered
	LastSeen       time.Time              `json:"last_seen"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DeviceRecord) TableName() string {
	return "user_devices"
}

// VersionShare is the number of devices running one version of a platform
type VersionShare struct {
	Version  string                 `json:"version"`
	Platform versiondomain.Platform `json:"platform"`
	Devices  int64                  `json:"devices"`
}
