// internal/database/store.go
//
// SQL backend for internal/record.
//
// Context
// -------
// Store implements record.Backend and record.VersionedBackend over one
// *sqlx.DB.  Every statement is single-table and keyed by the integer `id`
// column:
//
//	SelectOne        SELECT <cols> FROM <t> WHERE id = ? LIMIT 1
//	Insert           INSERT INTO <t> (<cols>) VALUES (?, …)
//	Update           UPDATE <t> SET <col> = ? WHERE id = ?
//	UpdateVersioned  UPDATE <t> SET <col> = ?, <v> = <v> + 1 WHERE id = ? AND <v> = ?
//	Delete           DELETE FROM <t> WHERE id = ?
//	Exists           SELECT 1 FROM <t> WHERE id = ? LIMIT 1
//
// Values are always bound parameters.  Identifiers cannot be bound, so the
// table prefix, table, and column names are checked against a strict
// pattern and quoted for the dialect before they reach the statement text.
//
// Notes
// -----
// • SelectOne returns sql.ErrNoRows verbatim; record maps it to ErrNotFound.
// • Constraint violations are wrapped with record.ErrConstraint.
// • Insert columns are sorted so statement text is deterministic.
// • Oxford commas, two spaces after periods.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/yanizio/plubo/internal/metrics"
	"github.com/yanizio/plubo/internal/record"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// compile-time assertions
var (
	_ record.Backend          = (*Store)(nil)
	_ record.VersionedBackend = (*Store)(nil)
)

// Store is safe for concurrent use; it holds no state beyond the pool.
type Store struct {
	db     *sqlx.DB
	prefix string
}

// NewStore binds a pool and a table prefix (e.g., "wp_").
func NewStore(db *sqlx.DB, prefix string) *Store {
	return &Store{db: db, prefix: prefix}
}

// DB exposes the pool for migrations and health checks.
func (s *Store) DB() *sqlx.DB { return s.db }

// Prefix returns the configured table prefix.
func (s *Store) Prefix() string { return s.prefix }

//
// record.Backend
//

// SelectOne scans the listed columns of row id into dest.
func (s *Store) SelectOne(ctx context.Context, table string, id int64, columns []string, dest any) (err error) {
	defer observe("select", time.Now(), &err)

	if len(columns) == 0 {
		ok, err := s.exists(ctx, table, id)
		if err != nil {
			return err
		}
		if !ok {
			return sql.ErrNoRows
		}
		return nil
	}

	t, err := s.table(table)
	if err != nil {
		return err
	}
	cols, err := s.quoteAll(columns)
	if err != nil {
		return err
	}

	q := "SELECT " + strings.Join(cols, ", ") +
		" FROM " + t + " WHERE " + s.quote("id") + " = ? LIMIT 1"
	return s.db.GetContext(ctx, dest, s.db.Rebind(q), id)
}

// Insert writes one row and returns its generated id.
func (s *Store) Insert(ctx context.Context, table string, fields map[string]any) (_ int64, err error) {
	defer observe("insert", time.Now(), &err)

	t, err := s.table(table)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var q string
	args := make([]any, 0, len(names))
	if len(names) == 0 {
		q = "INSERT INTO " + t + " DEFAULT VALUES"
		if s.db.DriverName() == DriverMySQL {
			q = "INSERT INTO " + t + " () VALUES ()"
		}
	} else {
		cols, err := s.quoteAll(names)
		if err != nil {
			return 0, err
		}
		marks := make([]string, len(names))
		for i, n := range names {
			marks[i] = "?"
			args = append(args, fields[n])
		}
		q = "INSERT INTO " + t + " (" + strings.Join(cols, ", ") +
			") VALUES (" + strings.Join(marks, ", ") + ")"
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

// Update sets one column on row id and reports affected rows.
func (s *Store) Update(ctx context.Context, table string, id int64, field string, value any) (_ int64, err error) {
	defer observe("update", time.Now(), &err)

	t, err := s.table(table)
	if err != nil {
		return 0, err
	}
	col, err := s.ident(field)
	if err != nil {
		return 0, err
	}

	q := "UPDATE " + t + " SET " + col + " = ? WHERE " + s.quote("id") + " = ?"
	return s.exec(ctx, q, value, id)
}

// Delete removes row id and reports affected rows.
func (s *Store) Delete(ctx context.Context, table string, id int64) (_ int64, err error) {
	defer observe("delete", time.Now(), &err)

	t, err := s.table(table)
	if err != nil {
		return 0, err
	}
	q := "DELETE FROM " + t + " WHERE " + s.quote("id") + " = ?"
	return s.exec(ctx, q, id)
}

//
// record.VersionedBackend
//

// UpdateVersioned sets one column and bumps the version column, but only
// while the stored version still equals version.
func (s *Store) UpdateVersioned(ctx context.Context, table string, id int64, field string, value any, versionColumn string, version int64) (_ int64, err error) {
	defer observe("update_versioned", time.Now(), &err)

	t, err := s.table(table)
	if err != nil {
		return 0, err
	}
	col, err := s.ident(field)
	if err != nil {
		return 0, err
	}
	vc, err := s.ident(versionColumn)
	if err != nil {
		return 0, err
	}

	q := "UPDATE " + t + " SET " + col + " = ?, " + vc + " = " + vc + " + 1" +
		" WHERE " + s.quote("id") + " = ? AND " + vc + " = ?"
	return s.exec(ctx, q, value, id, version)
}

// Exists reports whether row id is present.
func (s *Store) Exists(ctx context.Context, table string, id int64) (_ bool, err error) {
	defer observe("exists", time.Now(), &err)
	return s.exists(ctx, table, id)
}

//
// helpers
//

func (s *Store) exists(ctx context.Context, table string, id int64) (bool, error) {
	t, err := s.table(table)
	if err != nil {
		return false, err
	}
	q := "SELECT 1 FROM " + t + " WHERE " + s.quote("id") + " = ? LIMIT 1"

	var one int
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(q), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

// table returns the quoted, prefixed table name.
func (s *Store) table(name string) (string, error) {
	return s.ident(s.prefix + name)
}

// ident validates and quotes one identifier.
func (s *Store) ident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("database: invalid identifier %q", name)
	}
	return s.quote(name), nil
}

func (s *Store) quoteAll(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		q, err := s.ident(n)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// quote wraps an already-validated identifier for the active dialect.
func (s *Store) quote(name string) string {
	if s.db.DriverName() == DriverMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// classify tags driver constraint errors with record.ErrConstraint.
//
//	MySQL   1062 duplicate key, 1451/1452 foreign key, 1048 NOT NULL
//	SQLite  primary result code 19 (SQLITE_CONSTRAINT) and its extended codes
func classify(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1048, 1062, 1451, 1452:
			return fmt.Errorf("%w: %w", record.ErrConstraint, err)
		}
		return err
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == 19 {
		return fmt.Errorf("%w: %w", record.ErrConstraint, err)
	}
	return err
}

func observe(op string, start time.Time, errp *error) {
	outcome := "ok"
	switch {
	case *errp == nil:
	case errors.Is(*errp, sql.ErrNoRows):
		outcome = "no_rows"
	case errors.Is(*errp, record.ErrConstraint):
		outcome = "constraint"
	default:
		outcome = "error"
	}
	metrics.BackendStatementsTotal.WithLabelValues(op, outcome).Inc()
	metrics.BackendStatementSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
