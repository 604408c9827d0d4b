package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/prospector/internal/config"
	"github.com/wolfman30/prospector/internal/kvstore"
	"github.com/wolfman30/prospector/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// Medium is a storage medium plus whatever must be released at shutdown.
type Medium struct {
	kvstore.Medium
	Backend string
	closer  io.Closer
}

// Close releases the underlying connection or file, if any.
func (m *Medium) Close() error {
	if m == nil || m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// BuildMedium opens the storage medium selected by cfg.StorageBackend. An
// unreachable Redis falls back to the in-memory medium with a warning.
func BuildMedium(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Medium, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StorageBackend {
	case appconfig.BackendRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			logger.Warn("falling back to in-memory storage", "requested", cfg.StorageBackend)
			return memoryMedium(cfg), nil
		}
		logger.Info("using redis storage", "addr", cfg.RedisAddr, "prefix", cfg.RedisKeyPrefix)
		return &Medium{
			Medium:  kvstore.NewRedisMedium(client, cfg.RedisKeyPrefix),
			Backend: appconfig.BackendRedis,
			closer:  client,
		}, nil
	case appconfig.BackendSQLite:
		sqlite, err := kvstore.NewSQLiteMedium(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: open sqlite medium: %w", err)
		}
		logger.Info("using sqlite storage", "path", sqlite.Path())
		return &Medium{Medium: sqlite, Backend: appconfig.BackendSQLite, closer: sqlite}, nil
	case appconfig.BackendMemory, "":
		logger.Info("using in-memory storage", "quota_bytes", cfg.StorageQuotaBytes)
		return memoryMedium(cfg), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown storage backend %q", cfg.StorageBackend)
	}
}

func memoryMedium(cfg *appconfig.Config) *Medium {
	return &Medium{
		Medium:  kvstore.NewMemoryMedium(cfg.StorageQuotaBytes),
		Backend: appconfig.BackendMemory,
	}
}
