package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"slot-booking/internal/data/memory"
	"slot-booking/internal/data/repository"
	"slot-booking/pkg/database"
	"slot-booking/pkg/metrics"
	"slot-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// deps holds what every subcommand shares, bound to the configured store.
type deps struct {
	config  *utils.Config
	logger  *zap.Logger
	repo    *repository.Repository
	closers []func()
}

func (r *deps) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func bootstrap(ctx context.Context, migrateUp bool) (*deps, error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}

	rt := &deps{config: config, logger: logger}
	rt.closers = append(rt.closers, func() { _ = logger.Sync() })

	switch config.App.StoreDriver {
	case "memory":
		store := memory.NewStore(config.Reservation.LockTimeout, logger)
		if _, err := store.Seed(ctx, config.App.SeedResources, time.Now()); err != nil {
			rt.Close()
			return nil, fmt.Errorf("seed resources: %w", err)
		}
		rt.repo = store.Repository()
		logger.Warn("Using in-memory store, state is lost on restart")

	case "postgres", "":
		db, err := database.InitDB(config.Database)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		logger.Info("Database connected successfully")

		if migrateUp {
			applied, err := database.Migrate(ctx, db)
			if err != nil {
				rt.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			if len(applied) > 0 {
				logger.Info("Migrations applied", zap.Strings("files", applied))
			}
		}

		rt.repo = repository.NewRepository(db, config.Reservation.LockTimeout, logger)

	default:
		rt.Close()
		return nil, fmt.Errorf("unknown STORE_DRIVER %q, want postgres or memory", config.App.StoreDriver)
	}

	return rt, nil
}

// recorder returns the Redis-backed outcome counters when REDIS_ADDR is set,
// otherwise counters kept in this process.
func (r *deps) recorder(ctx context.Context) (metrics.Recorder, error) {
	cfg := r.config.Redis
	if cfg.Addr == "" {
		return metrics.NewMemoryRecorder(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	r.closers = append(r.closers, func() { _ = rdb.Close() })
	r.logger.Info("Outcome counters stored in redis", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.Prefix))
	return metrics.NewRedisRecorder(rdb, metrics.WithPrefix(cfg.Prefix)), nil
}
