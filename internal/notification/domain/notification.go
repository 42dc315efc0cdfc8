package domain

import (
	"time"

	versiondomain "update-tracker/internal/version/domain"
)

// Status is the lifecycle state of a notification
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusRead      Status = "READ"
	StatusDismissed Status = "DISMISSED"
)

// TerminalStatuses are the states the retention sweep may delete
var TerminalStatuses = []Status{StatusRead, StatusDismissed}

// UnreadStatuses are the states shown as unread to a user
var UnreadStatuses = []Status{StatusPending, StatusSent}

// Notification tells a user that one of their devices should update.
// At most one notification exists per (device, current, target, urgency).
type Notification struct {
	ID             string                      `json:"id" gorm:"primaryKey"`
	DeviceID       string                      `json:"device_id" gorm:"size:64;not null;uniqueIndex:idx_notification_dedup"`
	UserID         string                      `json:"user_id" gorm:"not null;index"`
	CurrentVersion string                      `json:"current_version" gorm:"size:100;not null;uniqueIndex:idx_notification_dedup"`
	TargetVersion  string                      `json:"target_version" gorm:"size:100;not null;uniqueIndex:idx_notification_dedup"`
	Urgency        versiondomain.UpdateUrgency `json:"urgency" gorm:"size:20;not null;uniqueIndex:idx_notification_dedup"`
	Status         Status                      `json:"status" gorm:"size:20;not null;index"`
	Message        string                      `json:"message" gorm:"type:text"`
	ReadAt         *time.Time                  `json:"read_at,omitempty"`
	CreatedAt      time.Time                   `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// DedupKey identifies notifications that must not coexist
type DedupKey struct {
	DeviceID       string
	CurrentVersion string
	TargetVersion  string
	Urgency        versiondomain.UpdateUrgency
}

// Key returns the dedup key of n
func (n *Notification) Key() DedupKey {
	return DedupKey{
		DeviceID:       n.DeviceID,
		CurrentVersion: n.CurrentVersion,
		TargetVersion:  n.TargetVersion,
		Urgency:        n.Urgency,
	}
}
