// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"io"
	"testing"
	"time"

	"update-tracker/pkg/cache"
	"update-tracker/pkg/config"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory database. A single connection serializes
// statements so concurrent scans never hit sqlite table locks.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// Logger returns a silent logger
func Logger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// NewCache returns an empty in-memory cache
func NewCache() cache.Cache {
	return cache.NewMemory(time.Minute, log.NewEntry(Logger()))
}

// Config returns settings suitable for tests
func Config() *config.Config {
	return &config.Config{
		AppEnv:                    "test",
		JWTSecret:                 "test-secret",
		CacheTTL:                  time.Minute,
		ScanWorkers:               4,
		DispatchInterval:          time.Hour,
		RetentionInterval:         time.Hour,
		NotificationRetentionDays: 30,
		ExclusiveActiveVersion:    true,
	}
}
