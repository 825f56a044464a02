// Package app wires the mgltickets auth server runtime: config, logging,
// storage backends, the session lifecycle, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"mgltickets/cmd/directory"
	authapi "mgltickets/cmd/internal/auth/api"
	"mgltickets/cmd/internal/auth/session"
)

// Store is a small app-level lifecycle abstraction for closable backends.
type Store interface {
	Close(ctx context.Context) error
}

type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type poolStore struct{ pool *pgxpool.Pool }

func (s poolStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type redisStore struct{ rdb *redis.Client }

func (s redisStore) Close(_ context.Context) error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

// App is the server runtime. It owns backend lifecycles and HTTP wiring.
type App struct {
	cfg Config
	log Logger

	store     Store
	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *prometheus.Registry

	sessions *session.Service
	sweeper  *session.Sweeper
	auth     *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	lifecycle, sessStore, users, dbPool, err := newBackends(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := session.NewMetrics(registry)

	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		_ = lifecycle.Close(ctx)
		return nil, err
	}
	svc, err := session.NewService(sessStore, codec, sessCfg, log, metrics)
	if err != nil {
		_ = lifecycle.Close(ctx)
		return nil, err
	}
	sweeper, err := session.NewSweeper(sessStore, sessCfg, log, metrics)
	if err != nil {
		_ = lifecycle.Close(ctx)
		return nil, err
	}

	authHandler, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, svc, sweeper)
	if err != nil {
		_ = lifecycle.Close(ctx)
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     lifecycle,
		dbPool:    dbPool,
		dbEnabled: dbPool != nil,
		registry:  registry,
		sessions:  svc,
		sweeper:   sweeper,
		auth:      authHandler,
	}, nil
}

// Run starts the HTTP server and the cleanup sweeper, and blocks until
// context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.registry, a.auth)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	if !a.cfg.SweeperDisabled {
		go func() {
			if err := a.sweeper.Start(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("sweeper.fail", "err", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newBackends decides how sessions and users are persisted.
//
// "auto" prefers Postgres (both sessions and users), then Redis (sessions in
// Redis, users in memory), then plain memory. Explicit backends fail fast
// when their dependency is not configured.
func newBackends(ctx context.Context, cfg Config, log Logger) (Store, session.Store, directory.Directory, *pgxpool.Pool, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	if backend == "" || backend == "auto" {
		switch {
		case cfg.DatabaseURL != "":
			backend = "postgres"
		case cfg.RedisAddr != "":
			backend = "redis"
		default:
			backend = "memory"
		}
	}

	switch backend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, nil, nil, errors.New("app: postgres backend requires MGL_DATABASE_URL")
		}
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		sessStore, err := session.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		users, err := directory.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		log.Info("backend.postgres")
		return poolStore{pool: pool}, sessStore, users, pool, nil

	case "redis":
		if cfg.RedisAddr == "" {
			return nil, nil, nil, nil, errors.New("app: redis backend requires MGL_REDIS_ADDR")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, nil, fmt.Errorf("app: redis ping: %w", err)
		}
		sessStore, err := session.NewRedisStore(rdb)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, nil, nil, err
		}
		log.Info("backend.redis", "addr", cfg.RedisAddr)
		return redisStore{rdb: rdb}, sessStore, directory.NewMemoryStore(), nil, nil

	case "memory":
		log.Info("backend.memory")
		return nopStore{}, session.NewMemoryStore(), directory.NewMemoryStore(), nil, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("app: unknown session backend %q", backend)
	}
}
