package usecase

import (
	"context"

	devicedomain "update-tracker/internal/device/domain"
	"update-tracker/internal/update/domain"
	versiondomain "update-tracker/internal/version/domain"
)

// VersionRegistry is the read side of the version registry used by evaluation
type VersionRegistry interface {
	Latest(ctx context.Context, platform versiondomain.Platform) (*versiondomain.VersionRecord, error)
	FindByVersion(ctx context.Context, version string, platform versiondomain.Platform) (*versiondomain.VersionRecord, error)
}

// DeviceDirectory is the slice of the device directory the engine reads and writes
type DeviceDirectory interface {
	Get(ctx context.Context, id string) (*devicedomain.DeviceRecord, error)
	List(ctx context.Context) ([]*devicedomain.DeviceRecord, error)
	ApplyVersion(ctx context.Context, id, expected, target string) error
}

// UpdateUsecase evaluates devices against version policy and remediates them
type UpdateUsecase interface {
	// Evaluate computes the verdict for one device. It performs no writes.
	Evaluate(ctx context.Context, deviceID string) (*domain.Verdict, error)

	// ScanAll evaluates every device. Devices that are gone or run an
	// unregistered version are skipped; a platform without an active version
	// fails the scan with PolicyUnavailable.
	ScanAll(ctx context.Context) (*domain.ScanReport, error)

	// ScanByUrgency keeps only verdicts with the given urgency
	ScanByUrgency(ctx context.Context, urgency string) (*domain.ScanReport, error)

	// UpdateDevice moves an outdated device to its target version
	UpdateDevice(ctx context.Context, deviceID string) (*domain.Verdict, error)

	// ForceUpdateAllOutdated remediates every MANDATORY and DEPRECATED device
	// and returns the verdicts that were applied
	ForceUpdateAllOutdated(ctx context.Context) ([]*domain.Verdict, error)
}
