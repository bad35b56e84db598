// Package bootstrap assembles the runtime dependencies shared by the
// server and seed commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"penloft/internal/cache"
	"penloft/internal/config"
	"penloft/internal/database"
	"penloft/internal/middleware"
	"penloft/internal/observability"
	"penloft/internal/repository"
	"penloft/internal/seed"
	"penloft/internal/server"
	"penloft/internal/suggest"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltins bool
	// SkipGenerator leaves the AI generator unset even when a key is configured.
	SkipGenerator bool
}

// Runtime is everything InitRuntime opened. Close releases it.
type Runtime struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Users     repository.UserRepository
	Posts     repository.PostRepository
	Generator suggest.Generator

	shutdownTracing func(context.Context) error
}

// InitRuntime starts tracing, opens storage and Redis, and optionally runs
// built-in seeding. Redis and the generator are optional: their absence is
// logged, not fatal.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "penloft-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExport,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}
	rt := &Runtime{shutdownTracing: shutdownTracing}

	if cfg.RedisURL != "" {
		rt.Redis = cache.Connect(cfg.RedisURL)
	}
	c := cache.New(rt.Redis)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := repository.NewMemoryStore()
		rt.Users, rt.Posts = store, store
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
		rt.Users = repository.NewUserRepository(db, c)
		rt.Posts = repository.NewPostRepository(db, c)
	}

	if opts.SeedBuiltins {
		if _, err := seed.Builtins(ctx, rt.Users, rt.Posts); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to seed builtin data: %w", err)
		}
	}

	if !opts.SkipGenerator && cfg.GenAIAPIKey != "" {
		gen, err := suggest.NewGenAIGenerator(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			middleware.Logger.Warn("AI generator unavailable, suggestions will fail", "error", err)
		} else {
			rt.Generator = gen
		}
	}

	return rt, nil
}

// Deps exposes the runtime as server dependencies.
func (rt *Runtime) Deps() server.Deps {
	return server.Deps{
		DB:        rt.DB,
		Redis:     rt.Redis,
		Users:     rt.Users,
		Posts:     rt.Posts,
		Generator: rt.Generator,
	}
}

// Close flushes traces and closes the database and Redis clients.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.shutdownTracing != nil {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rt.shutdownTracing(flushCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
