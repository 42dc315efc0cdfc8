package domain

import (
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
)

// Platform identifies the operating system an application build targets
type Platform string

const (
	PlatformAndroid Platform = "ANDROID"
	PlatformIOS     Platform = "IOS"
)

// Platforms lists every supported platform
var Platforms = []Platform{PlatformAndroid, PlatformIOS}

// ParsePlatform parses a platform name case-insensitively
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// UpdateUrgency describes how strongly devices on a version must update
type UpdateUrgency string

const (
	UrgencyUnavailable UpdateUrgency = "UNAVAILABLE"
	UrgencyOptional    UpdateUrgency = "OPTIONAL"
	UrgencyMandatory   UpdateUrgency = "MANDATORY"
	UrgencyDeprecated  UpdateUrgency = "DEPRECATED"
)

// Urgencies lists every urgency value
var Urgencies = []UpdateUrgency{UrgencyUnavailable, UrgencyOptional, UrgencyMandatory, UrgencyDeprecated}

// ParseUrgency parses an urgency name case-insensitively
func ParseUrgency(s string) (UpdateUrgency, bool) {
	u := UpdateUrgency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Urgencies {
		if u == known {
			return u, true
		}
	}
	return "", false
}

// VersionRecord is a released application version and the update policy attached to it
type VersionRecord struct {
	ID         string        `json:"id" gorm:"primaryKey"`
	Version    string        `json:"version" gorm:"size:100;not null;uniqueIndex:idx_version_platform"`
	Platform   Platform      `json:"platform" gorm:"size:50;not null;uniqueIndex:idx_version_platform;index:idx_platform_active"`
	ReleasedAt time.Time     `json:"released_at" gorm:"not null"`
	Changelog  string        `json:"changelog" gorm:"type:text"`
	Urgency    UpdateUrgency `json:"urgency" gorm:"size:20;not null"`
	Active     bool          `json:"active" gorm:"index:idx_platform_active"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (VersionRecord) TableName() string {
	return "app_versions"
}

// ValidVersion reports whether s parses as a version string
func ValidVersion(s string) bool {
	if len(s) < 1 || len(s) > 100 {
		return false
	}
	_, err := goversion.NewVersion(s)
	return err == nil
}

// PickLatest returns the record with the most recent release among records.
// Ties on the release timestamp go to the higher version, then to the most
// recently created record.
func PickLatest(records []*VersionRecord) *VersionRecord {
	var latest *VersionRecord
	for _, r := range records {
		if latest == nil || newer(r, latest) {
			latest = r
		}
	}
	return latest
}

func newer(a, b *VersionRecord) bool {
	if !a.ReleasedAt.Equal(b.ReleasedAt) {
		return a.ReleasedAt.After(b.ReleasedAt)
	}
	av, aErr := goversion.NewVersion(a.Version)
	bv, bErr := goversion.NewVersion(b.Version)
	if aErr == nil && bErr == nil && !av.Equal(bv) {
		return av.GreaterThan(bv)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
