package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"update-tracker/internal/update/domain"
	versiondomain "update-tracker/internal/version/domain"
	"update-tracker/pkg/apperr"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func (u *updateUsecase) ScanAll(ctx context.Context) (*domain.ScanReport, error) {
	return u.scan(ctx, func(*domain.Verdict) bool { return true })
}

func (u *updateUsecase) ScanByUrgency(ctx context.Context, urgency string) (*domain.ScanReport, error) {
	want, ok := versiondomain.ParseUrgency(urgency)
	if !ok {
		return nil, apperr.InvalidArgument("invalid urgency %q: must be one of %v", urgency, versiondomain.Urgencies)
	}
	return u.scan(ctx, func(v *domain.Verdict) bool { return v.Urgency == want })
}

// scanUrgencies keeps verdicts whose urgency is any of urgencies
func (u *updateUsecase) scanUrgencies(ctx context.Context, urgencies ...versiondomain.UpdateUrgency) (*domain.ScanReport, error) {
	return u.scan(ctx, func(v *domain.Verdict) bool {
		for _, want := range urgencies {
			if v.Urgency == want {
				return true
			}
		}
		return false
	})
}

// scan evaluates the fleet on a bounded pool. A device that is gone or runs an
// unregistered version is recorded in the report and skipped. A platform
// without policy aborts the scan with PolicyUnavailable. Cancelling ctx stops
// new evaluations; what was gathered so far is returned.
func (u *updateUsecase) scan(ctx context.Context, keep func(*domain.Verdict) bool) (*domain.ScanReport, error) {
	devices, err := u.devices.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ScanReport{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)

	for _, device := range devices {
		if gctx.Err() != nil {
			break
		}
		device := device
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			verdict, err := u.evaluateDevice(gctx, device)
			if err != nil && gctx.Err() != nil && errors.Is(err, gctx.Err()) {
				return nil
			}
			if err != nil && apperr.KindOf(err) == apperr.KindPolicyUnavailable {
				u.log.WithFields(log.Fields{"device_id": device.ID, "platform": device.Platform}).WithError(err).
					Error("aborting scan")
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				kind := apperr.KindOf(err)
				report.Failed++
				report.Err = multierror.Append(report.Err, fmt.Errorf("device %s: %w", device.ID, err))
				u.metrics.ScanSkipped(string(kind))
				u.log.WithFields(log.Fields{"device_id": device.ID, "kind": kind}).WithError(err).
					Warn("skipping device during scan")
				return nil
			}
			report.Evaluated++
			if keep(verdict) {
				report.Verdicts = append(report.Verdicts, verdict)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Cancelled = ctx.Err() != nil
	sort.Slice(report.Verdicts, func(i, j int) bool {
		return report.Verdicts[i].DeviceID < report.Verdicts[j].DeviceID
	})

	u.log.WithFields(log.Fields{
		"devices":   len(devices),
		"evaluated": report.Evaluated,
		"failed":    report.Failed,
		"matched":   len(report.Verdicts),
		"cancelled": report.Cancelled,
	}).Debug("fleet scan finished")
	return report, nil
}
