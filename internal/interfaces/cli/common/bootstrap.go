// Package common holds the start-up sequence shared by every command.
package common

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/config"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/database"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// Runtime is the loaded configuration plus the open connections.
type Runtime struct {
	Env   string
	Cfg   *config.Config
	Log   logger.Interface
	DB    *gorm.DB
	Redis *redis.Client
}

// ResolveEnv lets the ENV variable override the --env flag.
func ResolveEnv(flagValue string) string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return flagValue
}

// MapEnvToGinMode translates deployment environments to gin modes.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}

// Bootstrap loads config, initializes the logger and opens the database.
// Redis is connected only when enabled in config.
func Bootstrap(env string) (*Runtime, error) {
	mode := MapEnvToGinMode(env)

	cfg, err := config.Load(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, err
	}

	rt := &Runtime{Env: env, Cfg: cfg, Log: log, DB: database.Get()}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = database.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
		rt.Redis = client
	}

	return rt, nil
}

// Close releases the connections opened by Bootstrap.
func (r *Runtime) Close() {
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			r.Log.Warnw("failed to close redis", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		r.Log.Warnw("failed to close database", "error", err)
	}
}
