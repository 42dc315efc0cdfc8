package scheduler

import (
	"context"
	"time"

	"update-tracker/internal/notification/usecase"

	log "github.com/sirupsen/logrus"
)

// Jobs is the part of the notification engine the scheduler drives
type Jobs interface {
	DispatchToOutdated(ctx context.Context) (int, error)
	DeliverPending(ctx context.Context) (int, error)
	PurgeExpired(ctx context.Context, olderThanDays int) (int, error)
}

var _ Jobs = (usecase.NotificationUsecase)(nil)

// NotificationScheduler periodically notifies outdated devices and sweeps
// expired notifications
type NotificationScheduler struct {
	jobs              Jobs
	dispatchInterval  time.Duration
	retentionInterval time.Duration
	retentionDays     int
	log               *log.Entry
	stopChan          chan struct{}
	done              chan struct{}
}

// NewNotificationScheduler creates a new scheduler
func NewNotificationScheduler(jobs Jobs, dispatchInterval, retentionInterval time.Duration, retentionDays int, logger *log.Entry) *NotificationScheduler {
	if dispatchInterval <= 0 {
		dispatchInterval = time.Hour
	}
	if retentionInterval <= 0 {
		retentionInterval = 24 * time.Hour
	}
	return &NotificationScheduler{
		jobs:              jobs,
		dispatchInterval:  dispatchInterval,
		retentionInterval: retentionInterval,
		retentionDays:     retentionDays,
		log:               logger,
		stopChan:          make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *NotificationScheduler) Start() {
	s.log.WithFields(log.Fields{
		"dispatch_interval":  s.dispatchInterval.String(),
		"retention_interval": s.retentionInterval.String(),
		"retention_days":     s.retentionDays,
	}).Info("starting notification scheduler")

	go func() {
		defer close(s.done)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-s.stopChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		// Run immediately on start
		s.dispatch(ctx)
		s.purge(ctx)

		dispatchTicker := time.NewTicker(s.dispatchInterval)
		defer dispatchTicker.Stop()
		retentionTicker := time.NewTicker(s.retentionInterval)
		defer retentionTicker.Stop()

		for {
			select {
			case <-dispatchTicker.C:
				s.dispatch(ctx)
			case <-retentionTicker.C:
				s.purge(ctx)
			case <-ctx.Done():
				s.log.Info("notification scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler, interrupting a running job and
// waiting for the loop to exit
func (s *NotificationScheduler) Stop() {
	close(s.stopChan)
	<-s.done
}

func (s *NotificationScheduler) dispatch(ctx context.Context) {
	created, err := s.jobs.DispatchToOutdated(ctx)
	if err != nil {
		s.log.WithError(err).Error("dispatch to outdated devices failed")
	}

	sent, err := s.jobs.DeliverPending(ctx)
	if err != nil {
		s.log.WithError(err).Error("delivering pending notifications failed")
	}

	if created > 0 || sent > 0 {
		s.log.WithFields(log.Fields{"created": created, "sent": sent}).Info("notification run finished")
	}
}

func (s *NotificationScheduler) purge(ctx context.Context) {
	if _, err := s.jobs.PurgeExpired(ctx, s.retentionDays); err != nil {
		s.log.WithError(err).Error("notification retention sweep failed")
	}
}
