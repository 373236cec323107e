package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/codriving-backend/internal/api"
	"github.com/nekogravitycat/codriving-backend/internal/app"
	"github.com/nekogravitycat/codriving-backend/internal/config"
	"github.com/nekogravitycat/codriving-backend/internal/db"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/cache"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/logger"
	"github.com/nekogravitycat/codriving-backend/internal/search"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to db")
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			log.WithError(err).Fatal("failed to apply migrations")
		}
	}

	health := []api.HealthCheck{{Name: "postgres", Check: pool.Ping}}

	// Redis is optional; without it search results are not cached.
	var searchCache search.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer func() { _ = rc.Close() }()
		searchCache = rc
		health = append(health, api.HealthCheck{Name: "redis", Check: rc.Ping})
	} else {
		log.Info("REDIS_ADDR not set, search cache disabled")
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		DBPool:             pool,
		Logger:             log,
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             cfg.JWTAccessTokenTTL,
		BcryptCost:         cfg.BcryptCost,
		SearchCache:        searchCache,
		SearchCacheTTL:     cfg.SearchCacheTTL,
		UploadDir:          cfg.UploadDir,
		UploadMaxBytes:     cfg.UploadMaxBytes,
		DefaultUserCredits: cfg.DefaultUserCredits,
		Health:             health,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}

	log.Info("server exited gracefully")
}
