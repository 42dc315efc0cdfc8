package usecase

import (
	"context"
	"sort"
	"sync"

	"update-tracker/internal/update/domain"
	versiondomain "update-tracker/internal/version/domain"
	"update-tracker/pkg/apperr"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func (u *updateUsecase) UpdateDevice(ctx context.Context, deviceID string) (*domain.Verdict, error) {
	verdict, _, err := u.remediate(ctx, deviceID)
	return verdict, err
}

// remediate reports whether a version was written. A device that is already
// current yields its no-op verdict and false.
func (u *updateUsecase) remediate(ctx context.Context, deviceID string) (*domain.Verdict, bool, error) {
	verdict, err := u.Evaluate(ctx, deviceID)
	if err != nil {
		return nil, false, err
	}
	if !verdict.UpdateAvailable {
		return verdict, false, nil
	}

	// Conditional on the evaluated version: a concurrent check-in or
	// remediation of the same device turns this into a Conflict.
	if err := u.devices.ApplyVersion(ctx, deviceID, verdict.CurrentVersion, verdict.TargetVersion); err != nil {
		return nil, false, err
	}
	u.metrics.Remediated("applied")

	u.log.WithFields(log.Fields{
		"device_id": deviceID,
		"from":      verdict.CurrentVersion,
		"to":        verdict.TargetVersion,
		"urgency":   verdict.Urgency,
	}).Info("device updated")

	return &domain.Verdict{
		DeviceID:        verdict.DeviceID,
		UserID:          verdict.UserID,
		UpdateAvailable: false,
		CurrentVersion:  verdict.TargetVersion,
		TargetVersion:   verdict.TargetVersion,
		Urgency:         versiondomain.UrgencyUnavailable,
	}, true, nil
}

func (u *updateUsecase) ForceUpdateAllOutdated(ctx context.Context) ([]*domain.Verdict, error) {
	report, err := u.scanUrgencies(ctx, versiondomain.UrgencyMandatory, versiondomain.UrgencyDeprecated)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.Verdict, 0, len(report.Verdicts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)

	for _, candidate := range report.Verdicts {
		if gctx.Err() != nil {
			break
		}
		candidate := candidate
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			result, ok, err := u.remediate(gctx, candidate.DeviceID)
			if err != nil {
				kind := apperr.KindOf(err)
				if kind == apperr.KindPolicyUnavailable {
					return err
				}
				u.metrics.Remediated("skipped")
				u.log.WithFields(log.Fields{"device_id": candidate.DeviceID, "kind": kind}).WithError(err).
					Warn("skipping device during forced update")
				return nil
			}
			if !ok {
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].DeviceID < results[j].DeviceID })

	u.log.WithFields(log.Fields{
		"candidates": len(report.Verdicts),
		"applied":    len(results),
	}).Info("forced update finished")
	return results, nil
}
