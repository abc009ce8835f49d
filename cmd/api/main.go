package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/supplylens/internal/auth"
	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/db"
	httpx "github.com/geocoder89/supplylens/internal/http"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
	"github.com/geocoder89/supplylens/internal/observability"
	"github.com/geocoder89/supplylens/internal/redisclient"
	"github.com/geocoder89/supplylens/internal/repo/postgres"
	"github.com/geocoder89/supplylens/internal/security"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.AppName,
			Version:     cfg.AppVersion,
			Environment: cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	if cfg.MigrateOnStart {
		migrator, err := db.NewMigrator(cfg.DBURL, log)
		if err == nil {
			err = migrator.Up(ctx)
		}
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)
	hasher := security.NewHasher(cfg.BcryptCost)

	if created, err := db.EnsureSeedUser(ctx, users, hasher, cfg.SeedUserEmail, cfg.SeedUserPassword); err != nil {
		log.Error("seed user failed", "err", err)
		os.Exit(1)
	} else if created {
		log.Info("seed user created", "email", cfg.SeedUserEmail)
	}

	limiter := newLimiter(ctx, cfg, log)
	defer limiter.Close()

	router, err := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:     users,
		Alerts:    postgres.NewAlertsRepo(pool, prom),
		Watchlist: postgres.NewWatchlistRepo(pool, prom),
		Tokens:    auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Hasher:    hasher,
		Prom:      prom,
		Gatherer:  reg,
		Limiter:   limiter,
		Ping:      pingFn(pool),
	})
	if err != nil {
		log.Error("router setup failed", "err", err)
		os.Exit(1)
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "version", cfg.AppVersion)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}

// newLimiter shares counters through redis when REDIS_ADDR is set and
// reachable, otherwise counts in process.
func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) middlewares.Limiter {
	if cfg.RedisAddr == "" {
		return middlewares.NewRateLimiter()
	}

	client := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "supplylens:ratelimit:",
	})

	pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pctx); err != nil {
		log.Warn("redis unavailable, using in-process rate limiter", "addr", cfg.RedisAddr, "err", err)
		_ = client.Close()
		return middlewares.NewRateLimiter()
	}

	return middlewares.NewRedisLimiter(client, log)
}

func pingFn(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}
