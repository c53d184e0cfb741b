// Package storage opens the configured School Store backend.
package storage

import (
	"context"
	"fmt"

	"github.com/samirrijal/schoolfinder/internal/adapters/postgres"
	"github.com/samirrijal/schoolfinder/internal/adapters/sqlstore"
	"github.com/samirrijal/schoolfinder/internal/core/ports"
	"github.com/samirrijal/schoolfinder/internal/pkg/config"
	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
)

// Schema creates and drops the schools table.
type Schema interface {
	ports.SchemaManager
	DropSchema(ctx context.Context) error
}

// Pool is the connection pool behind a store.
type Pool interface {
	Ping(ctx context.Context) error
	Stat() (metrics.PoolStat, bool)
	Close()
}

// Store bundles the repository, schema manager and pool of one backend.
type Store struct {
	Schools ports.SchoolRepository
	Schema  Schema
	Pool    Pool
	Driver  string
}

// Close releases the pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DSN(), postgres.Options{
			MaxConns:     int32(cfg.MaxConns),
			QueryTimeout: cfg.QueryTimeoutDuration(),
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Store{
			Schools: postgres.NewSchoolRepo(db),
			Schema:  postgres.NewSchema(db),
			Pool:    db,
			Driver:  cfg.Driver,
		}, nil

	case config.DriverMySQL, config.DriverSQLite:
		dialect := sqlstore.MySQL
		if cfg.Driver == config.DriverSQLite {
			dialect = sqlstore.SQLite
		}
		db, err := sqlstore.Open(ctx, dialect, cfg.DSN(), sqlstore.Options{
			MaxConns:     cfg.MaxConns,
			QueryTimeout: cfg.QueryTimeoutDuration(),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
		}
		return &Store{
			Schools: sqlstore.NewSchoolRepo(db),
			Schema:  sqlstore.NewSchema(db),
			Pool:    db,
			Driver:  cfg.Driver,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
