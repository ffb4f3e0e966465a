package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"csinventory/internal/cache"
	"csinventory/internal/config"
	"csinventory/internal/service"
)

// openRedis returns nil when no URL is configured or the server is
// unreachable; item lookups then go straight to the database.
func openRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rdb, err := cache.Open(pingCtx, url)
	if err != nil {
		logger.Warn("redis unavailable (item cache disabled)", zap.Error(err))
		return nil
	}
	logger.Info("redis item cache enabled", zap.Duration("ttl", cfg.ItemTTL))
	return rdb
}

func importOnStart(ctx context.Context, items *service.ItemService, path string, logger *zap.Logger) {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("startup import skipped", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	res, err := items.ImportJSON(ctx, filepath.Base(path), f)
	if err != nil {
		logger.Warn("startup import failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("startup import done",
		zap.String("path", path),
		zap.Int("total", res.TotalItems),
		zap.Int("imported", res.ImportedCount),
		zap.Int("skipped", res.SkippedCount),
	)
}
