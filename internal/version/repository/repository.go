package repository

import (
	"context"
	"errors"

	"update-tracker/internal/version/domain"
)

// ErrDuplicate is returned when a version string already exists for the platform
var ErrDuplicate = errors.New("version already exists for platform")

// VersionRepository defines the interface for version record data access
type VersionRepository interface {
	// Create persists a new record. With exclusiveActive set, an active record
	// deactivates every other active record of its platform in the same transaction.
	Create(ctx context.Context, record *domain.VersionRecord, exclusiveActive bool) error

	// Update saves an existing record, with the same exclusiveActive semantics as Create
	Update(ctx context.Context, record *domain.VersionRecord, exclusiveActive bool) error

	// Delete removes a record by ID and reports whether it existed
	Delete(ctx context.Context, id string) (bool, error)

	// FindByID returns nil when no record exists
	FindByID(ctx context.Context, id string) (*domain.VersionRecord, error)

	// FindByVersion finds the record for an exact version string on a platform
	FindByVersion(ctx context.Context, version string, platform domain.Platform) (*domain.VersionRecord, error)

	// FindLatestActive returns the active record with the most recent release, or nil
	FindLatestActive(ctx context.Context, platform domain.Platform) (*domain.VersionRecord, error)

	// FindAll returns every record, optionally restricted to one platform
	FindAll(ctx context.Context, platform *domain.Platform) ([]*domain.VersionRecord, error)
}
