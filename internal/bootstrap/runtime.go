// Package bootstrap wires the database and cache for the command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chronicle/internal/cache"
	"chronicle/internal/config"
	"chronicle/internal/database"
	"chronicle/internal/models"
	"chronicle/internal/observability"
	"chronicle/internal/repository"
	"chronicle/internal/seed"
	"chronicle/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// FixturesPath, when set, loads YAML fixtures into an empty development
	// database.
	FixturesPath string
}

// InitRuntime connects to DB and Redis and optionally loads fixtures.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching.
	r := cache.InitRedis(cfg.RedisURL)

	if err := loadDevFixtures(context.Background(), cfg, db, opts.FixturesPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load development fixtures: %w", err)
	}

	return db, r, nil
}

func loadDevFixtures(ctx context.Context, cfg *config.Config, db *gorm.DB, path string) error {
	if strings.TrimSpace(path) == "" || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.BlogPost{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		observability.Logger.Info("skipping fixtures, blog already has posts", slog.Int64("posts", existing))
		return nil
	}

	fixtures, err := seed.LoadFixturesFile(path)
	if err != nil {
		return err
	}
	svc := service.NewBlogPostService(repository.NewBlogPostRepository(db), service.Options{
		MaxUploadSizeMB: cfg.MaxUploadSizeMB,
	})
	posts, err := seed.ApplyFixtures(ctx, svc, fixtures)
	if err != nil {
		return err
	}
	observability.Logger.Info("development fixtures loaded",
		slog.String("path", path),
		slog.Int("posts", len(posts)),
	)
	return nil
}
