// Package database centralises sqlx connection helpers and the SQL backend
// used by internal/record.  Two drivers are wired:
//
//	mysql   – go-sql-driver/mysql, also fine for MariaDB.
//	sqlite  – modernc.org/sqlite, pure Go, used for local runs and tests.
//
// Public entry points:
//
//	Open(ctx, driver, dsn)             – quick helper with conservative pools.
//	OpenWithOptions(ctx, dsn, opts)    – fine-grained control plus ping retries.
//	WithPassword(driver, dsn, pw)      – inject a Vault-resolved secret.
//	NewStore(db, prefix)               – record.Backend over the pool.
//
// Both Open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options tunes one pool.
type Options struct {
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // doubled after every failed attempt
}

// DefaultOptions returns 15 max open, 5 idle, and a 30-minute connection
// lifetime.  SQLite gets a single connection so writers never contend for
// the file lock.
func DefaultOptions(driver string) Options {
	o := Options{
		Driver:          driver,
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Retries:         2,
		RetryBackoff:    500 * time.Millisecond,
	}
	if driver == DriverSQLite {
		o.MaxOpenConns, o.MaxIdleConns, o.ConnMaxLifetime = 1, 1, 0
	}
	return o
}

// Open returns a pool built from DefaultOptions(driver).
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions(driver))
}

// OpenWithOptions opens, sizes, and pings a pool.  MySQL DSNs are
// normalised first; see normalizeDSN.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	dsn, err := normalizeDSN(opts.Driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := pingWithRetry(ctx, db, opts.Retries, opts.RetryBackoff); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}
	return db, nil
}

// WithPassword returns dsn with its password replaced by pw.  Only MySQL
// DSNs carry credentials; other drivers get dsn back unchanged.
func WithPassword(driver, dsn, pw string) (string, error) {
	if driver != DriverMySQL || pw == "" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.Passwd = pw
	return cfg.FormatDSN(), nil
}

// normalizeDSN forces parseTime so DATETIME columns scan into time.Time,
// and clientFoundRows so an UPDATE that writes an unchanged value still
// reports one matched row.  Without the latter a same-value SetField would
// look like a stale identity.
func normalizeDSN(driver, dsn string) (string, error) {
	if driver != DriverMySQL {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func pingWithRetry(ctx context.Context, db *sqlx.DB, retries int, backoff time.Duration) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		zap.S().Warnw("database ping failed, retrying",
			"attempt", attempt+1, "backoff", backoff, "err", err)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}
