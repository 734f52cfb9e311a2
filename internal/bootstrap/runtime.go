// Package bootstrap prepares the process-wide database and Redis handles.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipDevAdmin disables the development admin account even when
	// SEED_DEV_ADMIN is set. Maintenance commands use it.
	SkipDevAdmin bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if !opts.SkipDevAdmin {
		if err := ensureDevAdmin(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
		}
	}

	return db, r, nil
}

func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if cfg.Env != "development" || !cfg.SeedDevAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "agora_admin"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@agora.local"
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when SEED_DEV_ADMIN is enabled")
	}

	created, err := seed.EnsureAdmin(db, username, email, cfg.DevAdminPassword)
	if err != nil {
		return err
	}
	middleware.Logger.Info("development admin ensured",
		slog.String("username", username),
		slog.Bool("created", created),
	)
	return nil
}
