package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DatabaseURL string
	JWTSecret   string

	// Cache: in-memory unless RedisURL is set
	RedisURL string
	CacheTTL time.Duration

	// Push delivery and device check-in (both optional)
	FirebaseCredentials string
	GoogleProjectID     string
	GoogleCredentials   string
	CheckInSubscription string

	ScanWorkers               int
	DispatchInterval          time.Duration
	RetentionInterval         time.Duration
	NotificationRetentionDays int
	ExclusiveActiveVersion    bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                      getEnv("PORT", "8080"),
		AppEnv:                    getEnv("APP_ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		DatabaseURL:               getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=update_tracker port=5432 sslmode=disable"),
		JWTSecret:                 getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		RedisURL:                  getEnv("REDIS_URL", ""),
		CacheTTL:                  getDuration("CACHE_TTL", 10*time.Minute),
		FirebaseCredentials:       getEnv("FIREBASE_CREDENTIALS", ""),
		GoogleProjectID:           getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:         getEnv("GOOGLE_CREDENTIALS", ""),
		CheckInSubscription:       getEnv("CHECKIN_SUBSCRIPTION", "device-checkins-sub"),
		ScanWorkers:               getInt("SCAN_WORKERS", 8),
		DispatchInterval:          getDuration("DISPATCH_INTERVAL", time.Hour),
		RetentionInterval:         getDuration("RETENTION_INTERVAL", 24*time.Hour),
		NotificationRetentionDays: getInt("NOTIFICATION_RETENTION_DAYS", 30),
		ExclusiveActiveVersion:    getBool("EXCLUSIVE_ACTIVE_VERSION", true),
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
