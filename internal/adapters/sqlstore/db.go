package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
)

// Dialect selects the SQL flavour spoken by the database.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// DB wraps a database/sql pool for MySQL or SQLite.
type DB struct {
	SQL          *sql.DB
	Dialect      Dialect
	QueryTimeout time.Duration
}

// Options tunes the pool.
type Options struct {
	MaxConns     int
	QueryTimeout time.Duration
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string, opts Options) (*DB, error) {
	var driverName string
	switch dialect {
	case MySQL:
		driverName = "mysql"
		normalized, err := mysqlDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		dsn = normalized
	case SQLite:
		driverName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	maxConns := 100
	if opts.MaxConns > 0 {
		maxConns = opts.MaxConns
	}
	if dialect == SQLite {
		// One writer at a time; also keeps ":memory:" databases on a single connection.
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{SQL: db, Dialect: dialect, QueryTimeout: opts.QueryTimeout}, nil
}

// mysqlDSN accepts either a go-sql-driver DSN or a mysql:// URI and returns
// a driver DSN.
func mysqlDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mysql://") {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	for k, v := range u.Query() {
		if len(v) > 0 {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			cfg.Params[k] = v[0]
		}
	}
	return cfg.FormatDSN(), nil
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Stat returns pool statistics.
func (db *DB) Stat() (metrics.PoolStat, bool) {
	return poolStat(db.SQL.Stats()), true
}

// Close releases pool resources.
func (db *DB) Close() {
	_ = db.SQL.Close()
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.QueryTimeout)
}

type poolStat sql.DBStats

func (s poolStat) AcquiredConns() int32 { return int32(s.InUse) }
func (s poolStat) IdleConns() int32     { return int32(s.Idle) }
func (s poolStat) TotalConns() int32    { return int32(s.OpenConnections) }

func persistenceError(op string, err error) error {
	retryable := errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn)
	return &domain.PersistenceError{Op: op, Err: err, Retryable: retryable}
}
