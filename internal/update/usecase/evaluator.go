package usecase

import (
	"context"

	devicedomain "update-tracker/internal/device/domain"
	"update-tracker/internal/update/domain"
	versiondomain "update-tracker/internal/version/domain"
	"update-tracker/pkg/metrics"

	log "github.com/sirupsen/logrus"
)

// updateUsecase implements UpdateUsecase interface
type updateUsecase struct {
	versions VersionRegistry
	devices  DeviceDirectory
	workers  int
	metrics  *metrics.Metrics
	log      *log.Entry
}

// NewUpdateUsecase creates a new instance of updateUsecase. Fleet operations
// evaluate at most workers devices at a time.
func NewUpdateUsecase(versions VersionRegistry, devices DeviceDirectory, workers int, m *metrics.Metrics, logger *log.Entry) UpdateUsecase {
	if workers < 1 {
		workers = 1
	}
	return &updateUsecase{
		versions: versions,
		devices:  devices,
		workers:  workers,
		metrics:  m,
		log:      logger,
	}
}

func (u *updateUsecase) Evaluate(ctx context.Context, deviceID string) (*domain.Verdict, error) {
	device, err := u.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return u.evaluateDevice(ctx, device)
}

// evaluateDevice classifies an already loaded device. The latest version is
// resolved before the device's own record so a platform without policy
// reports PolicyUnavailable even for unregistered versions.
func (u *updateUsecase) evaluateDevice(ctx context.Context, device *devicedomain.DeviceRecord) (*domain.Verdict, error) {
	latest, err := u.versions.Latest(ctx, device.Platform)
	if err != nil {
		return nil, err
	}

	current, err := u.versions.FindByVersion(ctx, device.CurrentVersion, device.Platform)
	if err != nil {
		return nil, err
	}

	verdict := &domain.Verdict{
		DeviceID:       device.ID,
		UserID:         device.UserID,
		CurrentVersion: device.CurrentVersion,
	}

	switch current.Urgency {
	case versiondomain.UrgencyOptional, versiondomain.UrgencyMandatory, versiondomain.UrgencyDeprecated:
		verdict.UpdateAvailable = true
		verdict.TargetVersion = latest.Version
		verdict.Urgency = current.Urgency
	default:
		verdict.TargetVersion = device.CurrentVersion
		verdict.Urgency = versiondomain.UrgencyUnavailable
	}

	if current.Urgency == versiondomain.UrgencyMandatory {
		entry := u.log.WithFields(log.Fields{
			"device_id": device.ID,
			"current":   current.Version,
			"target":    latest.Version,
		})
		if current.Active {
			entry.Debug("mandatory update recommended now")
		} else {
			entry.Info("device runs a version that is no longer supported")
		}
	}

	u.metrics.Evaluated(string(verdict.Urgency))
	return verdict, nil
}
