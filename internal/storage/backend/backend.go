// Package backend opens the save store selected by configuration.
package backend

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/config"
	"github.com/cory-johannsen/rpgworld/internal/storage"
	"github.com/cory-johannsen/rpgworld/internal/storage/postgres"
	"github.com/cory-johannsen/rpgworld/internal/storage/redis"
	"github.com/cory-johannsen/rpgworld/internal/storage/sqlite"
)

// Open returns the Store named by cfg.Backend.
//
// Precondition: cfg has passed config validation.
// Postcondition: Returns a ready Store or a non-nil error; the caller closes it.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger, opts ...storage.Option) (storage.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(opts...), nil
	case config.BackendFile:
		return storage.NewFileStore(cfg.File.Dir, logger, opts...)
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.SQLite.Path, logger, opts...)
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres save store: %w", err)
		}
		return postgres.NewSaveRepository(pool, logger, opts...), nil
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("opening redis save store: %w", err)
		}
		return redis.New(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL, logger, opts...), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
