package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"soarfare/internal/adapters/observability"
	redisad "soarfare/internal/adapters/redis"
	"soarfare/internal/adapters/soarfare"
	"soarfare/internal/app"
	"soarfare/internal/shared"
	mysqlrepo "soarfare/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.APIBaseURL).
		Int("workers", cfg.SyncWorkers).
		Msg("content sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	client, err := soarfare.New(cfg.APIBaseURL, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}

	// cache is only invalidated here; a missing redis must not block the sync
	rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rc.Close()
	cache := redisad.New(rc, "soarfare:")

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	svc := app.NewSyncService(client, mysqlrepo.New(db), cache)
	if err := svc.SyncAll(ctx, cfg.SyncWorkers); err != nil {
		log.Error().Err(err).Msg("content sync finished with errors")
		os.Exit(1)
	}
	log.Info().Msg("content sync completed")
}
