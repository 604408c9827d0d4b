package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by bootstrap.BuildMedium.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Storage medium
	StorageBackend    string
	StorageQuotaBytes int
	LeadsStorageKey   string
	CampaignsKey      string
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	RedisKeyPrefix    string
	SQLitePath        string

	// Dashboard behaviour
	NotificationTTL    time.Duration
	PhoneDefaultRegion string
	SeedDemoData       bool
	ImportCSVPath      string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment variables
// win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageBackend:    strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", BackendMemory))),
		StorageQuotaBytes: getEnvAsInt("STORAGE_QUOTA_BYTES", 5*1024*1024),
		LeadsStorageKey:   getEnv("LEADS_STORAGE_KEY", "prospector-linkedin-leads"),
		CampaignsKey:      getEnv("CAMPAIGNS_STORAGE_KEY", "prospector-linkedin-campaigns"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", "prospector:"),
		SQLitePath:        getEnv("SQLITE_PATH", "prospector.db"),

		NotificationTTL:    getEnvAsDuration("NOTIFICATION_TTL", 5*time.Second),
		PhoneDefaultRegion: strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "ES")),
		SeedDemoData:       getEnvAsBool("SEED_DEMO_DATA", true),
		ImportCSVPath:      getEnv("IMPORT_CSV_PATH", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
