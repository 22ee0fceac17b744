// Package main is the entry point for the Student Life Hub CLI. It wires
// the persistence backend, event bus, progression engine, and session
// manager, then runs a short interactive-free session against them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/student-life-hub/student-life-hub/config"
	"github.com/student-life-hub/student-life-hub/internal/application"
	"github.com/student-life-hub/student-life-hub/internal/domain/gamification"
	"github.com/student-life-hub/student-life-hub/internal/domain/shared"
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
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx := context.Background()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	logger.Info("storage ready",
		"backend", cfg.Storage.Backend,
		"app", cfg.App.Name,
		"version", cfg.App.Version,
	)

	bus := messaging.New(messaging.Config{
		Logger:        logger,
		EnableMetrics: cfg.App.Debug,
	})
	defer bus.Close()

	// Notifications: print every gamification event the way the UI would
	// toast it.
	err = bus.SubscribeAll(func(event shared.Event) error {
		switch e := event.(type) {
		case shared.PointsAwardedEvent:
			fmt.Printf("+%d points: %s (level %d)\n", e.Points, e.Reason, e.Level)
		case shared.LevelUpEvent:
			fmt.Printf("Level up! %d -> %d\n", e.OldLevel, e.NewLevel)
		case shared.AchievementUnlockedEvent:
			fmt.Printf("%s Achievement unlocked: %s\n", e.Icon, e.Name)
		case shared.StreakUpdatedEvent:
			fmt.Printf("Streak: %d day(s)\n", e.Streak)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe notifications: %w", err)
	}

	backup := persistence.NewBackupper(store, logger)

	engine, err := application.NewEngine(application.EngineConfig{
		Store:  store,
		Bus:    bus,
		Points: pointsConfig(cfg.Gamification),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	sessions, err := application.NewSessionManager(application.SessionConfig{
		Store:  store,
		Bus:    bus,
		Backup: backup,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}

	return demo(ctx, engine, sessions)
}

// demo walks one day of app usage: sign in, check in, complete a few
// tasks, then print the resulting progression.
func demo(ctx context.Context, engine *application.Engine, sessions *application.SessionManager) error {
	profile, err := sessions.Login(ctx, "student@example.com", "hunter2")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Printf("Welcome, %s!\n", profile.Name)

	if _, err := engine.UpdateStreak(ctx); err != nil {
		return fmt.Errorf("check in: %w", err)
	}

	for _, cat := range []gamification.Category{
		gamification.CategoryStudy,
		gamification.CategoryMeal,
		gamification.CategoryCleaning,
	} {
		if _, err := engine.CompleteTask(ctx, cat); err != nil {
			return fmt.Errorf("complete %s task: %w", cat, err)
		}
	}

	state, err := engine.State(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	fmt.Printf("\nLevel %d | %d points | %d total | %d day streak\n",
		state.Level, state.Points, state.TotalPoints, state.Streak)

	entries, err := engine.RecentActivity(ctx, 10)
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}
	fmt.Println("\nRecent activity:")
	for _, entry := range entries {
		fmt.Printf("  %+d  %s\n", entry.Points, entry.Action)
	}

	return sessions.Logout()
}

// newStore builds the persistence backend selected by configuration.
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

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func pointsConfig(cfg config.GamificationConfig) gamification.Config {
	points := gamification.DefaultConfig()
	if cfg.PointsPerLevel > 0 {
		points.PointsPerLevel = cfg.PointsPerLevel
	}
	if cfg.DailyLogin > 0 {
		points.DailyLogin = cfg.DailyLogin
	}
	return points
}
