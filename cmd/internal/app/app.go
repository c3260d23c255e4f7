// Package app wires the ScribeAssist server runtime: config, logging, stores,
// HTTP routes, and the moderation event feed.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity"
	authapi "github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/api"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"
	modapi "github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation/api"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/realtime"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/summary"
)

// App is the ScribeAssist server runtime.
type App struct {
	cfg Config
	log Logger

	metrics *Metrics

	dbPool    *pgxpool.Pool
	sqlDB     *sql.DB
	dbEnabled bool

	guard      *session.Guard
	auth       *authapi.Handler
	moderation *modapi.Handler
	summary    *summary.Handler
	feed       *realtime.Gateway
}

// backends are the stores selected by configuration.
type backends struct {
	identity   identity.Store
	moderation moderation.Store
	pool       *pgxpool.Pool
	sqlDB      *sql.DB
}

// New constructs a fully wired App from config and logger. The session secret
// and other subsystem settings come from their own env loaders.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	return NewWithSession(ctx, cfg, sessCfg, log)
}

// NewWithSession is New with an explicit session config.
func NewWithSession(ctx context.Context, cfg Config, sessCfg session.Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	issuer, err := session.NewIssuer(sessCfg)
	if err != nil {
		return nil, fmt.Errorf("session issuer: %w", err)
	}

	be, err := newBackends(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	transformer, err := newTransformer(cfg)
	if err != nil {
		be.close()
		return nil, err
	}

	m := NewMetrics()

	hub := realtime.NewHub(log)
	m.GaugeFunc("events", "clients", "Connected moderation feed clients.", func() float64 { return float64(hub.Len()) })
	m.CounterFunc("events", "dropped_total", "Feed envelopes dropped on full send queues.", func() float64 { return float64(hub.Dropped()) })

	wf := moderation.NewWorkflow(be.moderation, log, moderation.WithNotifier(m.CountingNotifier(hub)))

	guard := session.NewGuard(log, issuer, sessCfg,
		session.WithRejectHook(m.GuardRejected),
		session.WithRenewHook(m.SessionRenewed),
	)

	authOpts := []authapi.HandlerOption{authapi.WithLoginHook(m.LoginOutcome)}
	if be.pool != nil {
		authOpts = append(authOpts, authapi.WithAuditPool(be.pool))
	}
	auth := authapi.NewHandler(log, identity.NewValidator(be.identity, log), issuer, guard.Cookies(), authapi.LoadConfigFromEnv(), authOpts...)

	return &App{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		dbPool:     be.pool,
		sqlDB:      be.sqlDB,
		dbEnabled:  be.pool != nil,
		guard:      guard,
		auth:       auth,
		moderation: modapi.NewHandler(log, wf, cfg.MaxBodyBytes),
		summary:    summary.NewHandler(log, transformer, cfg.MaxBodyBytes),
		feed:       realtime.NewGateway(log, hub, realtime.LoadConfigFromEnv()),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

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
		a.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.Close()
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases database resources. It is safe to call more than once.
func (a *App) Close() {
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			a.log.Error("db.sql.close.fail", "err", err)
		}
		a.sqlDB = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
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

// newBackends decides between Postgres-backed persistence and in-memory dev stores.
func newBackends(ctx context.Context, cfg Config, log Logger) (backends, error) {
	seeds, err := identity.ParseSeedUsers(cfg.DevUsers)
	if err != nil {
		return backends{}, fmt.Errorf("dev users: %w", err)
	}

	var be backends
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		be = backends{
			identity:   identity.NewMemoryStore(),
			moderation: moderation.NewMemoryStore(),
		}
	} else {
		pool, err := NewDBPool(ctx, cfg, log)
		if err != nil {
			return backends{}, err
		}
		be.pool = pool

		db, err := openSQL(ctx, pool, cfg.DBMigrate, log)
		if err != nil {
			be.close()
			return backends{}, err
		}
		be.sqlDB = db

		if be.identity, err = identity.NewPostgresStore(pool); err != nil {
			be.close()
			return backends{}, err
		}
		if be.moderation, err = moderation.NewSQLStore(db, ""); err != nil {
			be.close()
			return backends{}, err
		}
		log.Info("db.enabled.postgres_store")
	}

	if len(seeds) > 0 {
		n, err := identity.Seed(ctx, be.identity, seeds)
		if err != nil {
			be.close()
			return backends{}, err
		}
		log.Info("identity.seed", "configured", len(seeds), "created", n)
	}
	return be, nil
}

func (b backends) close() {
	if b.sqlDB != nil {
		_ = b.sqlDB.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func newTransformer(cfg Config) (summary.Transformer, error) {
	if cfg.SummaryURL == "" {
		return summary.Extractive{Sentences: cfg.SummarySentences}, nil
	}
	r, err := summary.NewRemote(cfg.SummaryURL, cfg.SummaryTimeout)
	if err != nil {
		return nil, err
	}
	return r, nil
}
