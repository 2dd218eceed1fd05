package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrovision/farm-api/internal/api"
	"github.com/agrovision/farm-api/internal/audit"
	"github.com/agrovision/farm-api/internal/core/service"
	mongodb "github.com/agrovision/farm-api/internal/infrastructure/db/mongo"
	redisdb "github.com/agrovision/farm-api/internal/infrastructure/db/redis"
	"github.com/agrovision/farm-api/internal/pkg/config"
	"github.com/agrovision/farm-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Audit trail workers ---
	recorder := audit.NewDispatcher(0, mongodb.NewAuditRepository(db), log)
	recorder.Start(ctx)

	// --- Default departments ---
	seeder := service.NewDepartmentService(mongodb.NewDepartmentRepository(db), mongodb.NewUserRepository(db), log)
	if err := seeder.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("department seeding failed")
	}

	// --- HTTP server ---
	e, err := api.NewRouter(cfg, db, rdb, recorder, log)
	if err != nil {
		log.Fatal().Err(err).Msg("router construction failed")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
