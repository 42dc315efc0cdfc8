package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "update-tracker/cmd/api"
	"update-tracker/internal/app"
	"update-tracker/pkg/config"
	"update-tracker/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	l := logger.New(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		l.WithError(err).Fatal("failed to initialize application")
	}
	defer a.Close()

	// Periodic dispatch and retention
	sched := a.NewScheduler()
	sched.Start()
	defer sched.Stop()

	// Device check-ins over Pub/Sub (optional)
	sub, err := a.NewCheckInSubscriber(ctx)
	if err != nil {
		l.WithError(err).Error("check-in subscriber disabled")
	} else if sub != nil {
		defer sub.Close()
		go sub.Start(ctx)
	} else {
		l.Warn("GOOGLE_PROJECT_ID not configured, check-in subscriber disabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewHandler(a).Router(),
	}

	go func() {
		l.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("server shutdown failed")
	}
}
