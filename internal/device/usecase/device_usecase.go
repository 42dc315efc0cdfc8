package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"update-tracker/internal/device/domain"
	"update-tracker/internal/device/repository"
	versiondomain "update-tracker/internal/version/domain"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/cache"

	log "github.com/sirupsen/logrus"
)

const (
	userKeyPrefix   = "device:user:"
	distributionKey = "device:distribution"
)

// LatestVersions resolves the governing version of a platform
type LatestVersions interface {
	Latest(ctx context.Context, platform versiondomain.Platform) (*versiondomain.VersionRecord, error)
}

// deviceUsecase implements DeviceUsecase interface
type deviceUsecase struct {
	repo     repository.DeviceRepository
	versions LatestVersions
	cache    cache.Cache
	log      *log.Entry
}

// NewDeviceUsecase creates a new instance of deviceUsecase
func NewDeviceUsecase(repo repository.DeviceRepository, versions LatestVersions, c cache.Cache, logger *log.Entry) DeviceUsecase {
	return &deviceUsecase{
		repo:     repo,
		versions: versions,
		cache:    c,
		log:      logger,
	}
}

func (u *deviceUsecase) Register(ctx context.Context, req RegisterDeviceRequest) (*domain.DeviceRecord, error) {
	platform, ok := versiondomain.ParsePlatform(req.Platform)
	if !ok {
		return nil, apperr.InvalidArgument("invalid platform %q", req.Platform)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, apperr.InvalidArgument("user_id is required")
	}
	if strings.TrimSpace(req.CurrentVersion) == "" {
		return nil, apperr.InvalidArgument("current_version is required")
	}

	if req.ID != "" {
		existing, err := u.repo.FindByID(ctx, req.ID)
		if err != nil {
			return nil, apperr.Internal("failed to load device", err)
		}
		if existing != nil {
			return nil, apperr.Conflict("device %s is already registered", req.ID)
		}
	}

	device := &domain.DeviceRecord{
		ID:             req.ID,
		UserID:         req.UserID,
		Platform:       platform,
		CurrentVersion: req.CurrentVersion,
		PushToken:      req.PushToken,
	}
	// A concurrent registration of the same id fails here as a duplicate key
	if err := u.repo.Create(ctx, device); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("device %s is already registered", req.ID)
		}
		return nil, apperr.Internal("failed to register device", err)
	}
	u.invalidate(ctx, device.UserID)

	u.log.WithFields(log.Fields{"device_id": device.ID, "user_id": device.UserID, "platform": device.Platform}).
		Info("device registered")
	return device, nil
}

func (u *deviceUsecase) Get(ctx context.Context, id string) (*domain.DeviceRecord, error) {
	device, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load device", err)
	}
	if device == nil {
		return nil, apperr.NotFound("device %s not found", id)
	}
	return device, nil
}

func (u *deviceUsecase) List(ctx context.Context) ([]*domain.DeviceRecord, error) {
	devices, err := u.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list devices", err)
	}
	return devices, nil
}

func (u *deviceUsecase) ListByUser(ctx context.Context, userID string) ([]*domain.DeviceRecord, error) {
	key := userKeyPrefix + userID

	var cached []*domain.DeviceRecord
	if u.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	devices, err := u.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list user devices", err)
	}
	u.cache.Set(ctx, key, devices)
	return devices, nil
}

func (u *deviceUsecase) Update(ctx context.Context, id string, req UpdateDeviceRequest) (*domain.DeviceRecord, error) {
	device, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousOwner := device.UserID

	if req.UserID != nil {
		if strings.TrimSpace(*req.UserID) == "" {
			return nil, apperr.InvalidArgument("user_id must not be empty")
		}
		device.UserID = *req.UserID
	}
	if req.Platform != nil {
		platform, ok := versiondomain.ParsePlatform(*req.Platform)
		if !ok {
			return nil, apperr.InvalidArgument("invalid platform %q", *req.Platform)
		}
		device.Platform = platform
	}
	if req.CurrentVersion != nil {
		if strings.TrimSpace(*req.CurrentVersion) == "" {
			return nil, apperr.InvalidArgument("current_version must not be empty")
		}
		device.CurrentVersion = *req.CurrentVersion
		device.LastSeen = time.Now()
	}
	if req.PushToken != nil {
		device.PushToken = *req.PushToken
	}

	if err := u.repo.Save(ctx, device); err != nil {
		return nil, apperr.Internal("failed to update device", err)
	}
	u.invalidate(ctx, previousOwner, device.UserID)

	return device, nil
}

func (u *deviceUsecase) Delete(ctx context.Context, id string) error {
	device, err := u.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := u.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete device", err)
	}
	if !deleted {
		return apperr.NotFound("device %s not found", id)
	}
	u.invalidate(ctx, device.UserID)

	u.log.WithField("device_id", id).Info("device deleted")
	return nil
}

func (u *deviceUsecase) CheckIn(ctx context.Context, id string, req CheckInRequest) (*domain.DeviceRecord, error) {
	if strings.TrimSpace(req.Version) == "" {
		return nil, apperr.InvalidArgument("version is required")
	}

	found, err := u.repo.CheckIn(ctx, id, req.Version, req.PushToken, time.Now())
	if err != nil {
		return nil, apperr.Internal("failed to record check-in", err)
	}
	if !found {
		return nil, apperr.NotFound("device %s not found", id)
	}

	device, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.invalidate(ctx, device.UserID)

	u.log.WithFields(log.Fields{"device_id": id, "version": req.Version}).Debug("device checked in")
	return device, nil
}

func (u *deviceUsecase) ApplyVersion(ctx context.Context, id, expected, target string) error {
	err := u.repo.ApplyVersion(ctx, id, expected, target, time.Now())
	if errors.Is(err, repository.ErrVersionChanged) {
		return apperr.Conflict("device %s no longer runs version %s", id, expected)
	}
	if err != nil {
		return apperr.Internal("failed to apply version", err)
	}

	// The owner is only needed to drop the cached list; a failed lookup
	// leaves the per-user entry to expire on its own.
	u.cache.Invalidate(ctx, distributionKey)
	if device, err := u.repo.FindByID(ctx, id); err == nil && device != nil {
		u.cache.Invalidate(ctx, userKeyPrefix+device.UserID)
	}
	return nil
}

func (u *deviceUsecase) Outdated(ctx context.Context, userID, platform string) ([]*domain.DeviceRecord, error) {
	p, ok := versiondomain.ParsePlatform(platform)
	if !ok {
		return nil, apperr.InvalidArgument("invalid platform %q", platform)
	}

	latest, err := u.versions.Latest(ctx, p)
	if err != nil {
		return nil, err
	}

	var devices []*domain.DeviceRecord
	if userID != "" {
		devices, err = u.repo.FindByUser(ctx, userID)
	} else {
		devices, err = u.repo.FindByPlatform(ctx, p)
	}
	if err != nil {
		return nil, apperr.Internal("failed to list devices", err)
	}

	outdated := make([]*domain.DeviceRecord, 0, len(devices))
	for _, device := range devices {
		if device.Platform == p && device.CurrentVersion != latest.Version {
			outdated = append(outdated, device)
		}
	}
	return outdated, nil
}

func (u *deviceUsecase) Distribution(ctx context.Context) ([]*domain.VersionShare, error) {
	var cached []*domain.VersionShare
	if u.cache.Get(ctx, distributionKey, &cached) {
		return cached, nil
	}

	shares, err := u.repo.Distribution(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to compute version distribution", err)
	}
	u.cache.Set(ctx, distributionKey, shares)
	return shares, nil
}

func (u *deviceUsecase) invalidate(ctx context.Context, userIDs ...string) {
	keys := []string{distributionKey}
	for _, id := range userIDs {
		keys = append(keys, userKeyPrefix+id)
	}
	u.cache.Invalidate(ctx, keys...)
}
