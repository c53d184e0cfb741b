package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
)

// Querier is the part of *pgxpool.Pool used by the repositories.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// DB wraps a shared connection pool. It is created once at startup and
// passed to every repository that needs it.
type DB struct {
	Pool         Querier
	QueryTimeout time.Duration
	stat         func() *pgxpool.Stat
}

// Options tunes the pool.
type Options struct {
	MaxConns     int32
	QueryTimeout time.Duration
}

// New creates a new DB connection pool.
func New(ctx context.Context, dsn string, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 100
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{Pool: pool, QueryTimeout: opts.QueryTimeout, stat: pool.Stat}, nil
}

// NewWithQuerier wraps an existing querier, such as a mock pool in tests.
func NewWithQuerier(q Querier, queryTimeout time.Duration) *DB {
	return &DB{Pool: q, QueryTimeout: queryTimeout}
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stat returns pool statistics when backed by a real pool.
func (db *DB) Stat() (metrics.PoolStat, bool) {
	if db.stat == nil {
		return nil, false
	}
	return db.stat(), true
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}

// withTimeout bounds a single round trip, including connection acquisition.
func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.QueryTimeout)
}

// persistenceError wraps err for the storage boundary, flagging failures that
// happened before the server could have applied anything.
func persistenceError(op string, err error) error {
	var connErr *pgconn.ConnectError
	retryable := pgconn.SafeToRetry(err) || errors.As(err, &connErr)
	return &domain.PersistenceError{Op: op, Err: err, Retryable: retryable}
}
