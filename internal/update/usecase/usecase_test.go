package usecase

import (
	"context"
	"testing"
	"time"

	deviceRepo "update-tracker/internal/device/repository"
	deviceUsecase "update-tracker/internal/device/usecase"
	"update-tracker/internal/testutil"
	versionRepo "update-tracker/internal/version/repository"
	versionUsecase "update-tracker/internal/version/usecase"
	"update-tracker/pkg/logger"
	"update-tracker/pkg/metrics"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	updates  UpdateUsecase
	devices  deviceUsecase.DeviceUsecase
	versions versionUsecase.VersionUsecase
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	c := testutil.NewCache()
	// Several active versions per platform are allowed here so fixtures can
	// register retired and current releases independently.
	versions := versionUsecase.NewVersionUsecase(versionRepo.NewGormVersionRepository(db), c, false, logger.Discard())
	devices := deviceUsecase.NewDeviceUsecase(deviceRepo.NewGormDeviceRepository(db), versions, c, logger.Discard())
	return &fixture{
		updates:  NewUpdateUsecase(versions, devices, 4, metrics.NewNop(), logger.Discard()),
		devices:  devices,
		versions: versions,
	}
}

func (f *fixture) version(t *testing.T, version, platform, urgency string, active bool) {
	t.Helper()
	released := time.Now()
	_, err := f.versions.Create(context.Background(), versionUsecase.CreateVersionRequest{
		Version: version, Platform: platform, Urgency: urgency, Active: active, ReleasedAt: &released,
	})
	require.NoError(t, err)
}

func (f *fixture) device(t *testing.T, id, platform, version string) {
	t.Helper()
	_, err := f.devices.Register(context.Background(), deviceUsecase.RegisterDeviceRequest{
		ID: id, UserID: "user-" + id, Platform: platform, CurrentVersion: version,
	})
	require.NoError(t, err)
}

// androidPolicy is the reference setup: 2.0 is current, 1.0 is retired and
// must be updated, 1.5 may be updated, 0.9 is no longer supported
func (f *fixture) androidPolicy(t *testing.T) {
	f.version(t, "2.0", "ANDROID", "UNAVAILABLE", true)
	f.version(t, "1.0", "ANDROID", "MANDATORY", false)
	f.version(t, "1.5", "ANDROID", "OPTIONAL", false)
	f.version(t, "0.9", "ANDROID", "DEPRECATED", false)
}
