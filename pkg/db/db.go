package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MustConnect opens a pgx pool for the given DSN. Both the server and the
// backfill CLI boot through here; a missing DSN is a configuration error.
func MustConnect(dsn string) *pgxpool.Pool {
	if dsn == "" {
		panic("database dsn is required (set DATABASE_URL or database.dsn)")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		panic(err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	return pool
}
