package usecase

import (
	"context"
	"time"

	"update-tracker/internal/version/domain"
)

// VersionUsecase is the version registry: it owns version records and answers
// which version governs each platform
type VersionUsecase interface {
	// Create registers a new version
	Create(ctx context.Context, req CreateVersionRequest) (*domain.VersionRecord, error)

	// Update edits urgency, activity, changelog or identity of a version
	Update(ctx context.Context, id string, req UpdateVersionRequest) (*domain.VersionRecord, error)

	// Delete removes a version
	Delete(ctx context.Context, id string) error

	// Get retrieves a version by ID
	Get(ctx context.Context, id string) (*domain.VersionRecord, error)

	// List retrieves every version, optionally for one platform ("" for all)
	List(ctx context.Context, platform string) ([]*domain.VersionRecord, error)

	// Latest returns the governing version of a platform, failing with
	// PolicyUnavailable when the platform has no active version
	Latest(ctx context.Context, platform domain.Platform) (*domain.VersionRecord, error)

	// FindByVersion returns the record for a version string, failing with
	// UnknownVersion when it was never registered
	FindByVersion(ctx context.Context, version string, platform domain.Platform) (*domain.VersionRecord, error)
}

// CreateVersionRequest represents the fields of a new version
type CreateVersionRequest struct {
	Version    string     `json:"version" binding:"required"`
	Platform   string     `json:"platform" binding:"required"`
	Urgency    string     `json:"urgency" binding:"required"`
	Active     bool       `json:"active"`
	Changelog  string     `json:"changelog"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

// UpdateVersionRequest represents the fields that can be updated
type UpdateVersionRequest struct {
	Version    *string    `json:"version,omitempty"`
	Platform   *string    `json:"platform,omitempty"`
	Urgency    *string    `json:"urgency,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	Changelog  *string    `json:"changelog,omitempty"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}
