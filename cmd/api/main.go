// Package main is the entry point for the SnipSnap API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/roguepikachu/snipsnap/internal/config"
	"github.com/roguepikachu/snipsnap/internal/data"
	"github.com/roguepikachu/snipsnap/internal/http/handler"
	"github.com/roguepikachu/snipsnap/internal/http/middleware"
	"github.com/roguepikachu/snipsnap/internal/http/router"
	"github.com/roguepikachu/snipsnap/internal/repository/cached"
	"github.com/roguepikachu/snipsnap/internal/repository/postgres"
	"github.com/roguepikachu/snipsnap/internal/service"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InitLogging()
	config.InitConf()
	conf := config.Conf
	if conf.JWTSecret == "" {
		logger.Fatal(ctx, "AUTH_JWT_SECRET must be set")
	}

	pool, err := data.NewPostgresPool(ctx, conf)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if conf.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal(ctx, "failed to apply schema: %v", err)
		}
	}

	var (
		rdb   *redis.Client
		cache service.SnippetCache = service.NoopCache{}
	)
	if conf.CacheEnabled {
		rdb = data.NewRedisClient(conf)
		defer rdb.Close()
		cache = cached.NewSnippetCache(rdb, conf.CacheTTL)
		logger.Info(ctx, "redis cache enabled at %s (ttl %s)", conf.RedisAddr, conf.CacheTTL)
	}

	store := postgres.NewStore(pool)
	snippets := service.NewServiceWithOptions(store, service.RealClock{}, service.WithCache(cache))
	tags := service.NewTagService(store, service.RealClock{},
		service.WithHideForbiddenTags(conf.HideForbiddenTags),
		service.WithTagCache(cache),
	)

	engine := router.NewRouter(
		handler.NewHandler(snippets),
		handler.NewTagHandler(tags),
		handler.NewHealthHandler(pool, rdb),
		middleware.Auth(conf.JWTSecret, conf.JWTIssuer),
	)

	srv := &http.Server{Addr: ":" + conf.Port, Handler: engine}
	go func() {
		logger.Info(ctx, "listening on :%s", conf.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed: %v", err)
	}
}
