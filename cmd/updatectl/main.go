package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"update-tracker/internal/app"
	"update-tracker/pkg/config"
	"update-tracker/pkg/logger"
)

const (
	// ExitFailed defines exit code
	ExitFailed = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (*app.App, error) {
		cfg := config.Load()
		return app.New(ctx, cfg, logger.New(cfg.AppEnv, logLevel))
	}

	if err := newRootCmd(open).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(ExitFailed)
	}
}
