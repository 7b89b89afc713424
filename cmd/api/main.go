package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "soarfare/internal/adapters/http_server"
	"soarfare/internal/adapters/observability"
	redisad "soarfare/internal/adapters/redis"
	"soarfare/internal/adapters/soarfare"
	"soarfare/internal/app"
	"soarfare/internal/domain"
	"soarfare/internal/shared"
	mysqlrepo "soarfare/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// backend
	client, err := soarfare.New(cfg.APIBaseURL, cfg.APIRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}

	// redis: content cache + booking sessions
	rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rc.Close()
	cache := redisad.New(rc, "soarfare:")
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	sessions := redisad.NewSessions(rc, cfg.SessionTTL)

	// mysql snapshots are a fallback only; run without them when unavailable
	var snapshots domain.ContentRepository
	if db, err := sql.Open("mysql", cfg.MySQLDSN); err != nil {
		log.Warn().Err(err).Msg("sql.Open failed; content snapshots disabled")
	} else if err := db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("db.Ping failed; content snapshots disabled")
		_ = db.Close()
	} else {
		defer db.Close()
		snapshots = mysqlrepo.New(db)
		log.Info().Msg("database connection ok")
	}

	h := &server.Handlers{
		Client:    client,
		Content:   app.NewContentService(client, cache, snapshots, cfg.CacheTTL),
		Search:    app.NewFlightSearchService(client, searchMock(cfg)),
		Booking:   app.NewBookingService(client),
		Dashboard: app.NewDashboardService(client, sessions),
		Sessions:  sessions,
	}

	srv := server.New(server.Options{
		CORSOrigins: cfg.CORSOrigins,
		Sessions:    server.NewCookieStore([]byte(cfg.SessionKey), cfg.SessionTTL, cfg.AppEnv == "prod"),
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.HTTPAddr).Msg("listen failed")
	}
	log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.APIBaseURL).Bool("search_mock", cfg.FlightSearchMock).Msg("API listening")
	if err := serve(ctx, httpSrv, ln, 10*time.Second); err != nil {
		log.Error().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// serve runs srv until ctx is done, then lets in-flight requests finish
// within grace. Request contexts are not tied to ctx.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// searchMock returns the fabricated search double only when enabled in config.
func searchMock(cfg shared.Config) func(url.Values) domain.Relay {
	if !cfg.FlightSearchMock {
		return nil
	}
	return soarfare.MockFlightSearch
}
