package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/migrations"
)

const (
	dbAppName     = "scribeassist"
	dbDialTimeout = 3 * time.Second
)

// NewDBPool opens the shared pgx pool used by the credential store, the
// audit log and (through openSQL) the moderation store.
func NewDBPool(ctx context.Context, cfg Config, log Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 && cfg.DBMinConns <= pcfg.MaxConns {
		pcfg.MinConns = cfg.DBMinConns
	}
	if _, ok := pcfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		pcfg.ConnConfig.RuntimeParams["application_name"] = dbAppName
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := PingDB(ctx, pool, dbDialTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("db.pool.ready",
		"max_conns", pcfg.MaxConns,
		"min_conns", pcfg.MinConns,
		"host", pcfg.ConnConfig.Host,
	)
	return pool, nil
}

// PingDB acquires and releases one connection within timeout.
// /readyz calls it on every probe when a database is configured.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

// openSQL exposes pool through database/sql for goose and the moderation
// store, optionally running migrations first. Closing the returned DB does
// not close the pool.
func openSQL(ctx context.Context, pool *pgxpool.Pool, migrate bool, log Logger) (*sql.DB, error) {
	db := stdlib.OpenDBFromPool(pool)
	if !migrate {
		return db, nil
	}
	start := time.Now()
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("db.migrate.done", "duration_ms", time.Since(start).Milliseconds())
	return db, nil
}
