// internal/acl/store.go
//
// Capability store for admin pages.
//
// Context
// -------
// Admin menu pages declare the capability a user needs (for example
// `manage_options`).  Grants live in three prefixed tables:
//
//	plubo_roles       (id PK, name UNIQUE, enabled)
//	plubo_role_caps   (role_id, capability)
//	plubo_user_roles  (user_id, role_id)
//
// Middleware needs fast answers to two questions:
//  1. Which *role names* does user X have?            → `UserRoles()`
//  2. Does user X hold capability C via any role?     → `Can()`
//
// `Grant` and `Assign` are used by the CLI to seed the tables.
//
// Notes
// -----
// • Statements go through sqlx.Rebind, so the same text runs on MySQL and
//   SQLite.
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package acl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrUnknownRole is returned by Assign for a role that was never granted.
var ErrUnknownRole = errors.New("acl: unknown role")

var prefixRe = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Store is safe for concurrent use.
type Store struct {
	db     *sqlx.DB
	prefix string
}

// NewStore binds db and the table prefix.
func NewStore(db *sqlx.DB, prefix string) (*Store, error) {
	if !prefixRe.MatchString(prefix) {
		return nil, fmt.Errorf("acl: invalid table prefix %q", prefix)
	}
	return &Store{db: db, prefix: prefix}, nil
}

// q expands {p} to the table prefix and rebinds placeholders.
func (s *Store) q(query string) string {
	return s.db.Rebind(strings.ReplaceAll(query, "{p}", s.prefix))
}

// UserRoles returns the enabled role *names* bound to userID.
func (s *Store) UserRoles(ctx context.Context, userID int64) ([]string, error) {
	const q = `SELECT r.name
                 FROM {p}plubo_user_roles ur
                 JOIN {p}plubo_roles r ON r.id = ur.role_id
                WHERE ur.user_id = ? AND r.enabled = 1
                ORDER BY r.name`

	roles := make([]string, 0, 4)
	if err := s.db.SelectContext(ctx, &roles, s.q(q), userID); err != nil {
		return nil, err
	}
	return roles, nil
}

// Can reports whether any enabled role of userID carries capability.
func (s *Store) Can(ctx context.Context, userID int64, capability string) (bool, error) {
	const q = `SELECT 1
                 FROM {p}plubo_user_roles ur
                 JOIN {p}plubo_roles r      ON r.id = ur.role_id
                 JOIN {p}plubo_role_caps rc ON rc.role_id = r.id
                WHERE ur.user_id = ? AND r.enabled = 1 AND rc.capability = ?
                LIMIT 1` // early exit once we find a hit

	var dummy int
	err := s.db.QueryRowxContext(ctx, s.q(q), userID, capability).Scan(&dummy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Grant gives role the capability, creating the role when needed.
// Granting twice is a no-op.
func (s *Store) Grant(ctx context.Context, role, capability string) error {
	if role == "" || capability == "" {
		return errors.New("acl: role and capability must be non-empty")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roleID, err := s.roleID(ctx, tx, role)
	if errors.Is(err, ErrUnknownRole) {
		res, ierr := tx.ExecContext(ctx, s.q(`INSERT INTO {p}plubo_roles (name) VALUES (?)`), role)
		if ierr != nil {
			return fmt.Errorf("acl: create role %q: %w", role, ierr)
		}
		roleID, err = res.LastInsertId()
	}
	if err != nil {
		return err
	}

	var n int
	err = tx.GetContext(ctx, &n,
		s.q(`SELECT COUNT(*) FROM {p}plubo_role_caps WHERE role_id = ? AND capability = ?`),
		roleID, capability)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO {p}plubo_role_caps (role_id, capability) VALUES (?, ?)`),
			roleID, capability); err != nil {
			return fmt.Errorf("acl: grant %s to %q: %w", capability, role, err)
		}
	}
	return tx.Commit()
}

// Assign binds userID to an existing role.  Assigning twice is a no-op.
func (s *Store) Assign(ctx context.Context, userID int64, role string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roleID, err := s.roleID(ctx, tx, role)
	if err != nil {
		return err
	}

	var n int
	err = tx.GetContext(ctx, &n,
		s.q(`SELECT COUNT(*) FROM {p}plubo_user_roles WHERE user_id = ? AND role_id = ?`),
		userID, roleID)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO {p}plubo_user_roles (user_id, role_id) VALUES (?, ?)`),
			userID, roleID); err != nil {
			return fmt.Errorf("acl: assign %q to user %d: %w", role, userID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) roleID(ctx context.Context, tx *sqlx.Tx, role string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, s.q(`SELECT id FROM {p}plubo_roles WHERE name = ?`), role)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return id, err
}

// Migrations returns the DDL for dialect ("mysql" or "sqlite").  Statements
// use the {prefix} placeholder expanded by the component registry.
func Migrations(dialect string) []string {
	if dialect == "mysql" {
		return []string{
			`CREATE TABLE IF NOT EXISTS {prefix}plubo_roles (
				id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				name    VARCHAR(64)     NOT NULL UNIQUE,
				enabled TINYINT(1)      NOT NULL DEFAULT 1
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS {prefix}plubo_role_caps (
				role_id    BIGINT UNSIGNED NOT NULL,
				capability VARCHAR(64)     NOT NULL,
				PRIMARY KEY (role_id, capability)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS {prefix}plubo_user_roles (
				user_id BIGINT UNSIGNED NOT NULL,
				role_id BIGINT UNSIGNED NOT NULL,
				PRIMARY KEY (user_id, role_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS {prefix}plubo_roles (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT    NOT NULL UNIQUE,
			enabled INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS {prefix}plubo_role_caps (
			role_id    INTEGER NOT NULL,
			capability TEXT    NOT NULL,
			PRIMARY KEY (role_id, capability)
		)`,
		`CREATE TABLE IF NOT EXISTS {prefix}plubo_user_roles (
			user_id INTEGER NOT NULL,
			role_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, role_id)
		)`,
	}
}
