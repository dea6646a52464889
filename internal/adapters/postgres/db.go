package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/meteomcp/migrations"
)

// DB wraps the pgx pool shared by the location cache and the migrate tool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects and pings. maxConns <= 0 keeps the pgx default; the location
// cache is one small table so a handful of connections is plenty.
func New(ctx context.Context, dsn string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate applies steps in order, each in its own transaction. It stops at
// the first failure and reports how many steps were applied before it.
func (db *DB) Migrate(ctx context.Context, steps []migrations.Migration) (int, error) {
	for i, m := range steps {
		err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, m.SQL)
			return err
		})
		if err != nil {
			return i, fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return len(steps), nil
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}
