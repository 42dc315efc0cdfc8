package usecase

import (
	"context"
	"errors"
	"testing"

	"update-tracker/internal/device/domain"
	"update-tracker/internal/device/repository"
	"update-tracker/internal/testutil"
	versiondomain "update-tracker/internal/version/domain"
	versionRepo "update-tracker/internal/version/repository"
	versionUsecase "update-tracker/internal/version/usecase"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	devices  DeviceUsecase
	versions versionUsecase.VersionUsecase
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	c := testutil.NewCache()
	versions := versionUsecase.NewVersionUsecase(versionRepo.NewGormVersionRepository(db), c, true, logger.Discard())
	devices := NewDeviceUsecase(repository.NewGormDeviceRepository(db), versions, c, logger.Discard())
	return &fixture{devices: devices, versions: versions}
}

func (f *fixture) register(t *testing.T, id, userID, platform, version string) {
	t.Helper()
	_, err := f.devices.Register(context.Background(), RegisterDeviceRequest{
		ID: id, UserID: userID, Platform: platform, CurrentVersion: version,
	})
	require.NoError(t, err)
}

func TestRegisterDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.devices.Register(ctx, RegisterDeviceRequest{UserID: "u1", Platform: "ios", CurrentVersion: "1.0", PushToken: "tok"})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, versiondomain.PlatformIOS, d.Platform)
	assert.False(t, d.LastSeen.IsZero())

	got, err := f.devices.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.PushToken)

	_, err = f.devices.Register(ctx, RegisterDeviceRequest{ID: d.ID, UserID: "u1", Platform: "IOS", CurrentVersion: "1.0"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = f.devices.Register(ctx, RegisterDeviceRequest{UserID: "u1", Platform: "PALM", CurrentVersion: "1.0"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))

	_, err = f.devices.Get(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "d1", "u1", "ANDROID", "1.0")

	before, err := f.devices.Get(ctx, "d1")
	require.NoError(t, err)

	d, err := f.devices.CheckIn(ctx, "d1", CheckInRequest{Version: "1.1", PushToken: "new-token"})
	require.NoError(t, err)
	assert.Equal(t, "1.1", d.CurrentVersion)
	assert.Equal(t, "new-token", d.PushToken)
	assert.False(t, d.LastSeen.Before(before.LastSeen))

	// An empty token keeps the stored one
	d, err = f.devices.CheckIn(ctx, "d1", CheckInRequest{Version: "1.2"})
	require.NoError(t, err)
	assert.Equal(t, "new-token", d.PushToken)

	_, err = f.devices.CheckIn(ctx, "missing", CheckInRequest{Version: "1.0"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.devices.CheckIn(ctx, "d1", CheckInRequest{Version: " "})
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestApplyVersionIsConditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "d1", "u1", "ANDROID", "1.0")

	require.NoError(t, f.devices.ApplyVersion(ctx, "d1", "1.0", "2.0"))

	// A second writer holding the old version loses
	err := f.devices.ApplyVersion(ctx, "d1", "1.0", "3.0")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	d, err := f.devices.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "2.0", d.CurrentVersion)

	err = f.devices.ApplyVersion(ctx, "gone", "1.0", "2.0")
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestListByUserCacheIsInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "d1", "u1", "ANDROID", "1.0")

	devices, err := f.devices.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, devices, 1)

	f.register(t, "d2", "u1", "IOS", "1.0")
	devices, err = f.devices.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	// Moving a device to another owner drops it from both lists
	owner := "u2"
	_, err = f.devices.Update(ctx, "d2", UpdateDeviceRequest{UserID: &owner})
	require.NoError(t, err)

	devices, err = f.devices.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, devices, 1)
	devices, err = f.devices.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, devices, 1)

	require.NoError(t, f.devices.Delete(ctx, "d1"))
	devices, err = f.devices.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, devices)

	assert.True(t, errors.Is(f.devices.Delete(ctx, "d1"), apperr.ErrNotFound))
}

func TestOutdated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.devices.Outdated(ctx, "", "ANDROID")
	assert.True(t, errors.Is(err, apperr.ErrPolicyUnavailable))

	_, err = f.versions.Create(ctx, versionUsecase.CreateVersionRequest{Version: "2.0", Platform: "ANDROID", Urgency: "UNAVAILABLE", Active: true})
	require.NoError(t, err)

	f.register(t, "d1", "u1", "ANDROID", "1.0")
	f.register(t, "d2", "u1", "ANDROID", "2.0")
	f.register(t, "d3", "u2", "ANDROID", "1.5")
	f.register(t, "d4", "u1", "IOS", "1.0")

	outdated, err := f.devices.Outdated(ctx, "u1", "android")
	require.NoError(t, err)
	require.Len(t, outdated, 1)
	assert.Equal(t, "d1", outdated[0].ID)

	outdated, err = f.devices.Outdated(ctx, "", "ANDROID")
	require.NoError(t, err)
	assert.Len(t, outdated, 2)

	_, err = f.devices.Outdated(ctx, "u1", "")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "d1", "u1", "ANDROID", "1.0")
	f.register(t, "d2", "u2", "ANDROID", "1.0")
	f.register(t, "d3", "u2", "IOS", "1.0")

	shares, err := f.devices.Distribution(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, versiondomain.PlatformAndroid, shares[0].Platform)
	assert.Equal(t, int64(2), shares[0].Devices)

	// Remediation writes invalidate the cached distribution
	require.NoError(t, f.devices.ApplyVersion(ctx, "d1", "1.0", "2.0"))
	shares, err = f.devices.Distribution(ctx)
	require.NoError(t, err)
	assert.Len(t, shares, 3)
}

// staleLookupRepository misses every lookup, as a registration racing
// another one for the same id would
type staleLookupRepository struct {
	repository.DeviceRepository
}

func (r staleLookupRepository) FindByID(ctx context.Context, id string) (*domain.DeviceRecord, error) {
	return nil, nil
}

func TestRegisterRaceReportsConflict(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.NewCache()
	versions := versionUsecase.NewVersionUsecase(versionRepo.NewGormVersionRepository(db), c, true, logger.Discard())
	repo := staleLookupRepository{repository.NewGormDeviceRepository(db)}
	devices := NewDeviceUsecase(repo, versions, c, logger.Discard())
	ctx := context.Background()

	req := RegisterDeviceRequest{ID: "d1", UserID: "u1", Platform: "ANDROID", CurrentVersion: "1.0"}
	_, err := devices.Register(ctx, req)
	require.NoError(t, err)

	_, err = devices.Register(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)
}
