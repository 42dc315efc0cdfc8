package usecase

import (
	"context"
	"errors"
	"time"

	"update-tracker/internal/version/domain"
	"update-tracker/internal/version/repository"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/cache"

	log "github.com/sirupsen/logrus"
)

const latestKeyPrefix = "version:latest:"

// versionUsecase implements VersionUsecase interface
type versionUsecase struct {
	repo            repository.VersionRepository
	cache           cache.Cache
	exclusiveActive bool
	log             *log.Entry
}

// NewVersionUsecase creates a new instance of versionUsecase. With
// exclusiveActive set, activating a version deactivates its platform siblings.
func NewVersionUsecase(repo repository.VersionRepository, c cache.Cache, exclusiveActive bool, logger *log.Entry) VersionUsecase {
	return &versionUsecase{
		repo:            repo,
		cache:           c,
		exclusiveActive: exclusiveActive,
		log:             logger,
	}
}

func (u *versionUsecase) Create(ctx context.Context, req CreateVersionRequest) (*domain.VersionRecord, error) {
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		return nil, apperr.InvalidArgument("invalid platform %q", req.Platform)
	}
	urgency, ok := domain.ParseUrgency(req.Urgency)
	if !ok {
		return nil, invalidUrgency(req.Urgency)
	}
	if !domain.ValidVersion(req.Version) {
		return nil, apperr.InvalidArgument("invalid version string %q", req.Version)
	}

	now := time.Now()
	record := &domain.VersionRecord{
		Version:    req.Version,
		Platform:   platform,
		Urgency:    urgency,
		Active:     req.Active,
		Changelog:  req.Changelog,
		ReleasedAt: now,
	}
	if req.ReleasedAt != nil {
		record.ReleasedAt = *req.ReleasedAt
	}
	if record.Changelog == "" {
		record.Changelog = now.Format(time.RFC3339) + ": created"
	}

	if err := u.repo.Create(ctx, record, u.exclusiveActive); err != nil {
		return nil, u.writeError(err, record)
	}
	u.invalidateLatest(ctx)

	u.log.WithFields(log.Fields{"version_id": record.ID, "version": record.Version, "platform": record.Platform}).
		Info("version created")
	return record, nil
}

func (u *versionUsecase) Update(ctx context.Context, id string, req UpdateVersionRequest) (*domain.VersionRecord, error) {
	record, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Version != nil {
		if !domain.ValidVersion(*req.Version) {
			return nil, apperr.InvalidArgument("invalid version string %q", *req.Version)
		}
		record.Version = *req.Version
	}
	if req.Platform != nil {
		platform, ok := domain.ParsePlatform(*req.Platform)
		if !ok {
			return nil, apperr.InvalidArgument("invalid platform %q", *req.Platform)
		}
		record.Platform = platform
	}
	if req.Urgency != nil {
		urgency, ok := domain.ParseUrgency(*req.Urgency)
		if !ok {
			return nil, invalidUrgency(*req.Urgency)
		}
		record.Urgency = urgency
	}
	if req.Active != nil {
		record.Active = *req.Active
	}
	if req.ReleasedAt != nil {
		record.ReleasedAt = *req.ReleasedAt
	}

	changelog := record.Changelog
	if req.Changelog != nil {
		changelog = *req.Changelog
	}
	record.Changelog = time.Now().Format(time.RFC3339) + ": updated | " + changelog

	if err := u.repo.Update(ctx, record, u.exclusiveActive); err != nil {
		return nil, u.writeError(err, record)
	}
	u.invalidateLatest(ctx)

	u.log.WithFields(log.Fields{"version_id": record.ID, "active": record.Active, "urgency": record.Urgency}).
		Info("version updated")
	return record, nil
}

func (u *versionUsecase) Delete(ctx context.Context, id string) error {
	deleted, err := u.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete version", err)
	}
	if !deleted {
		return apperr.NotFound("version %s not found", id)
	}
	u.invalidateLatest(ctx)

	u.log.WithField("version_id", id).Info("version deleted")
	return nil
}

func (u *versionUsecase) Get(ctx context.Context, id string) (*domain.VersionRecord, error) {
	record, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load version", err)
	}
	if record == nil {
		return nil, apperr.NotFound("version %s not found", id)
	}
	return record, nil
}

func (u *versionUsecase) List(ctx context.Context, platform string) ([]*domain.VersionRecord, error) {
	var filter *domain.Platform
	if platform != "" {
		p, ok := domain.ParsePlatform(platform)
		if !ok {
			return nil, apperr.InvalidArgument("invalid platform %q", platform)
		}
		filter = &p
	}

	records, err := u.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list versions", err)
	}
	return records, nil
}

func (u *versionUsecase) Latest(ctx context.Context, platform domain.Platform) (*domain.VersionRecord, error) {
	key := latestKeyPrefix + string(platform)

	var cached domain.VersionRecord
	if u.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	latest, err := u.repo.FindLatestActive(ctx, platform)
	if err != nil {
		return nil, apperr.Internal("failed to load latest version", err)
	}
	if latest == nil {
		return nil, apperr.PolicyUnavailable("no active version for platform %s", platform)
	}

	u.cache.Set(ctx, key, latest)
	return latest, nil
}

func (u *versionUsecase) FindByVersion(ctx context.Context, version string, platform domain.Platform) (*domain.VersionRecord, error) {
	record, err := u.repo.FindByVersion(ctx, version, platform)
	if err != nil {
		return nil, apperr.Internal("failed to load version", err)
	}
	if record == nil {
		return nil, apperr.UnknownVersion("version %s is not registered for platform %s", version, platform)
	}
	return record, nil
}

// invalidateLatest drops the memoized latest version of every platform.
// Any write can change which record governs a platform, including siblings
// deactivated in the same transaction.
func (u *versionUsecase) invalidateLatest(ctx context.Context) {
	keys := make([]string, 0, len(domain.Platforms))
	for _, p := range domain.Platforms {
		keys = append(keys, latestKeyPrefix+string(p))
	}
	u.cache.Invalidate(ctx, keys...)
}

func (u *versionUsecase) writeError(err error, record *domain.VersionRecord) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict("version %s already exists for platform %s", record.Version, record.Platform)
	}
	return apperr.Internal("failed to save version", err)
}

func invalidUrgency(s string) error {
	return apperr.InvalidArgument("invalid urgency %q: must be one of %v", s, domain.Urgencies)
}
