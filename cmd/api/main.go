// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Monova HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to MongoDB.
//  4. Connect to Redis (optional).
//  5. Ensure the request tracker time-series collection exists.
//  6. Wire the auth gates and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/monova/internal/api"
	"github.com/taibuivan/monova/internal/auth"
	"github.com/taibuivan/monova/internal/cph"
	"github.com/taibuivan/monova/internal/platform/cache"
	"github.com/taibuivan/monova/internal/platform/config"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/middleware"
	mongostore "github.com/taibuivan/monova/internal/platform/mongo"
	redisstore "github.com/taibuivan/monova/internal/platform/redis"
	"github.com/taibuivan/monova/internal/platform/sec"
	"github.com/taibuivan/monova/internal/platform/store"
	"github.com/taibuivan/monova/internal/platform/task"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.ServiceName))
	slog.SetDefault(log)

	log.Info("[Monova] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.ServiceName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lifetime context for background components (rate limiter cleanup).
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. MongoDB ────────────────────────────────────────────────────────
	mongoClient, err := mongostore.NewClient(startupCtx, cfg.MongoURI, log)
	must(log, err, "connect to mongodb")
	defer func() {
		log.Info("closing mongo client")
		if cerr := mongoClient.Disconnect(context.Background()); cerr != nil {
			log.Error("mongo disconnect error", slog.Any("error", cerr))
		}
	}()

	database := mongoClient.Database(cfg.MongoDatabase)

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	} else {
		log.Warn("redis_disabled", slog.String("effect", "rate limiting is per-instance"))
	}

	// ── 5. Collection Bootstrap ───────────────────────────────────────────
	must(log, mongostore.EnsureTimeSeries(startupCtx, database, constants.CollectionRequestTracker, log),
		"ensure request tracker collection")

	// ── 6. Auth Wiring ────────────────────────────────────────────────────
	documents := store.NewMongo(database)
	codec := sec.NewCodec(cfg.JWTSecret)
	spawner := task.NewSpawner(log)

	gates := auth.NewGates(auth.GateDeps{
		Codec:       codec,
		Users:       auth.NewUserResolver(documents, log),
		Permissions: auth.NewPermissionResolver(documents, cache.NewMemo()),
		Spawner:     spawner,
	})

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return mongostore.Ping(context.Background(), mongoClient)
		},
		CheckCache: func() error {
			if rdb == nil {
				return nil
			}
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	cphHandler := cph.NewHandler(cph.NewService(documents))

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Cph:       cphHandler,
	}

	middlewares := api.Middlewares{
		RateLimiter: middleware.NewRateLimiter(appCtx, rdb, log),
		Tracker:     middleware.Tracker(documents, codec, spawner),
	}

	server := api.NewServer(cfg, log, gates, middlewares, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Let in-flight tracker writes land before the process exits.
	if !spawner.Drain(constants.BackgroundTaskTimeout) {
		log.Warn("background tasks did not drain in time")
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
