// Package main is the entry point for the check-in worker. It runs the
// daily streak check-in on a cron schedule, standing in for whatever
// normally detects app activation. The progression engine itself never
// schedules anything.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/student-life-hub/student-life-hub/config"
	"github.com/student-life-hub/student-life-hub/internal/application"
	"github.com/student-life-hub/student-life-hub/internal/infrastructure/messaging"
	"github.com/student-life-hub/student-life-hub/internal/infrastructure/persistence"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	bus := messaging.New(messaging.Config{Logger: logger})
	defer bus.Close()

	engine, err := application.NewEngine(application.EngineConfig{
		Store:  store,
		Bus:    bus,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	scheduler := cron.New(
		cron.WithLocation(cfg.Worker.Location),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	_, err = scheduler.AddFunc(cfg.Worker.CheckInSchedule, func() {
		result, err := engine.UpdateStreak(context.Background())
		if err != nil {
			logger.Error("daily check-in failed", "error", err)
			return
		}
		logger.Info("daily check-in complete",
			"streak", result.Streak,
			"continued", result.Continued,
		)
	})
	if err != nil {
		return fmt.Errorf("schedule check-in: %w", err)
	}

	scheduler.Start()
	logger.Info("check-in worker started",
		"schedule", cfg.Worker.CheckInSchedule,
		"timezone", cfg.Worker.Timezone,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	// Let an in-flight check-in finish before tearing the store down.
	<-scheduler.Stop().Done()
	return nil
}

func newStore(ctx context.Context, cfg config.StorageConfig) (persistence.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return persistence.NewMemoryStore(), nil
	case config.BackendFile:
		return persistence.NewFileStore(cfg.FilePath)
	case config.BackendRedis:
		rc := persistence.DefaultRedisConfig()
		rc.Host = cfg.RedisHost
		rc.Port = cfg.RedisPort
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		rc.PoolSize = cfg.RedisPoolSize
		return persistence.NewRedisStore(rc)
	case config.BackendPostgres:
		return persistence.NewPostgresStore(ctx, persistence.PostgresConfig{
			URL:          cfg.PostgresURL,
			MaxConns:     int32(cfg.PostgresMaxConns),
			QueryTimeout: cfg.QueryTimeout,
		})
	case config.BackendSQLite:
		return persistence.NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
