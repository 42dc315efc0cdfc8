// Package app wires the update engine together. The HTTP server and the
// operator CLI share it so both run the same usecases.
package app

import (
	"context"
	"fmt"

	authUsecase "update-tracker/internal/auth/usecase"
	"update-tracker/internal/device/checkin"
	deviceRepo "update-tracker/internal/device/repository"
	deviceUsecase "update-tracker/internal/device/usecase"
	notificationRepo "update-tracker/internal/notification/repository"
	"update-tracker/internal/notification/scheduler"
	notificationUsecase "update-tracker/internal/notification/usecase"
	updateUsecase "update-tracker/internal/update/usecase"
	versionRepo "update-tracker/internal/version/repository"
	versionUsecase "update-tracker/internal/version/usecase"
	"update-tracker/pkg/cache"
	"update-tracker/pkg/config"
	"update-tracker/pkg/database"
	"update-tracker/pkg/fcm"
	"update-tracker/pkg/logger"
	"update-tracker/pkg/metrics"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *log.Logger
	Registry *prometheus.Registry

	Auth          authUsecase.AuthUsecase
	Versions      versionUsecase.VersionUsecase
	Devices       deviceUsecase.DeviceUsecase
	Updates       updateUsecase.UpdateUsecase
	Notifications notificationUsecase.NotificationUsecase
}

// New connects to the database, the cache and, when configured, FCM
func New(ctx context.Context, cfg *config.Config, l *log.Logger) (*App, error) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	s, err := cache.NewStore(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		l.WithError(err).Warn("redis unavailable, falling back to in-memory cache")
		s, _ = cache.NewStore("", cfg.CacheTTL)
	}

	var pusher notificationUsecase.Pusher
	if cfg.FirebaseCredentials != "" {
		client, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, logger.Component(l, "fcm"))
		if err != nil {
			l.WithError(err).Warn("failed to initialize FCM client, push delivery disabled")
		} else {
			pusher = client
		}
	} else {
		l.Info("no Firebase credentials configured, push delivery disabled")
	}

	return Build(cfg, db, s, pusher, l), nil
}

// Build wires usecases over an open database and cache store. pusher may be nil.
func Build(cfg *config.Config, db *gorm.DB, s store.StoreInterface, pusher notificationUsecase.Pusher, l *log.Logger) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	c := cache.New(s, cfg.CacheTTL, logger.Component(l, "cache"))

	versions := versionUsecase.NewVersionUsecase(
		versionRepo.NewGormVersionRepository(db), c, cfg.ExclusiveActiveVersion, logger.Component(l, "version"))
	devices := deviceUsecase.NewDeviceUsecase(
		deviceRepo.NewGormDeviceRepository(db), versions, c, logger.Component(l, "device"))
	updates := updateUsecase.NewUpdateUsecase(
		versions, devices, cfg.ScanWorkers, m, logger.Component(l, "update"))
	notifications := notificationUsecase.NewNotificationUsecase(
		notificationRepo.NewGormNotificationRepository(db), updates, devices, pusher, c, m, logger.Component(l, "notification"))

	return &App{
		Config:        cfg,
		DB:            db,
		Logger:        l,
		Registry:      registry,
		Auth:          authUsecase.NewAuthUsecase(cfg.JWTSecret),
		Versions:      versions,
		Devices:       devices,
		Updates:       updates,
		Notifications: notifications,
	}
}

// NewScheduler returns the periodic dispatch and retention loop
func (a *App) NewScheduler() *scheduler.NotificationScheduler {
	return scheduler.NewNotificationScheduler(
		a.Notifications,
		a.Config.DispatchInterval,
		a.Config.RetentionInterval,
		a.Config.NotificationRetentionDays,
		logger.Component(a.Logger, "scheduler"),
	)
}

// NewCheckInSubscriber returns the Pub/Sub check-in consumer, or nil when
// no project or subscription is configured
func (a *App) NewCheckInSubscriber(ctx context.Context) (*checkin.Subscriber, error) {
	if a.Config.GoogleProjectID == "" || a.Config.CheckInSubscription == "" {
		return nil, nil
	}
	sub, err := checkin.NewSubscriber(ctx, a.Config.GoogleProjectID, a.Config.CheckInSubscription,
		a.Config.GoogleCredentials, a.Devices, logger.Component(a.Logger, "checkin"))
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in subscriber: %w", err)
	}
	return sub, nil
}

// Close releases the database connection
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
