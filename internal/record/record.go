// Package record maps one Go struct onto one row of one table, keyed by an
// integer id.
//
// Context
// -------
// A Record[T] wraps an entity struct T (one struct per table, columns
// declared by `db` tags) and an injected Backend.  It offers four
// operations, each exactly one synchronous round-trip:
//
//	Load(ctx, id)                 – SELECT declared columns WHERE id = ?
//	SetField(ctx, name, value)    – UPDATE one column WHERE id = ?
//	Create(ctx, fields)           – INSERT, capture the generated id
//	Delete(ctx)                   – DELETE WHERE id = ?
//
// There is no caching, no locking, and no transaction spanning calls.  Two
// Records holding the same id race; the last write wins unless the entity
// opts into optimistic versioning with WithVersion.
//
// Modes
// -----
// Strict (default) surfaces ErrNotFound and ErrStaleIdentity, validates
// input before the round-trip, and mutates memory only after the backend
// confirms.  Legacy mode (WithLegacySilent) keeps the historical
// behaviour: missing rows and zero-row writes are silent, and memory is
// updated optimistically.  Backend failures propagate in both modes.
//
// Notes
// -----
// • A Record is not safe for concurrent use.
// • Oxford commas, two spaces after periods.
package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/metrics"
)

// Entity is implemented by every struct that maps onto a table.  TableName
// must use a value receiver and return the unprefixed table name.
type Entity interface {
	TableName() string
}

// Backend executes parameterised statements for Record.  SelectOne scans
// the listed columns into dest (a pointer to the entity struct) and returns
// sql.ErrNoRows when no row matches.  Update and Delete report affected
// rows.  Implementations wrap constraint violations with ErrConstraint.
type Backend interface {
	SelectOne(ctx context.Context, table string, id int64, columns []string, dest any) error
	Insert(ctx context.Context, table string, fields map[string]any) (int64, error)
	Update(ctx context.Context, table string, id int64, field string, value any) (int64, error)
	Delete(ctx context.Context, table string, id int64) (int64, error)
}

// VersionedBackend is required by records built WithVersion.
type VersionedBackend interface {
	Backend
	UpdateVersioned(ctx context.Context, table string, id int64, field string, value any, versionColumn string, version int64) (int64, error)
	Exists(ctx context.Context, table string, id int64) (bool, error)
}

//
// Options
//

type options struct {
	legacy  bool
	version string
}

// Option configures a Record.
type Option func(*options)

// WithLegacySilent restores the silent NotFound and zero-row behaviour.
func WithLegacySilent(on bool) Option {
	return func(o *options) { o.legacy = on }
}

// WithVersion enables optimistic versioning on the named integer column.
func WithVersion(column string) Option {
	return func(o *options) { o.version = column }
}

//
// Record
//

// Record binds an entity value to its row.
type Record[T Entity] struct {
	backend Backend
	opts    options
	id      int64
	data    T
}

// New returns an empty, unpersisted Record.
func New[T Entity](b Backend, opts ...Option) *Record[T] {
	r := &Record[T]{backend: b}
	for _, o := range opts {
		o(&r.opts)
	}
	return r
}

// Get constructs a Record and loads id.  In strict mode a missing row
// returns the Record together with an ErrNotFound error.
func Get[T Entity](ctx context.Context, b Backend, id int64, opts ...Option) (*Record[T], error) {
	r := New[T](b, opts...)
	return r, r.Load(ctx, id)
}

// ID returns the identifier and whether one is present.
func (r *Record[T]) ID() (int64, bool) { return r.id, r.id > 0 }

// Fields returns a copy of the in-memory entity.
func (r *Record[T]) Fields() T { return r.data }

// Table returns the unprefixed table name.
func (r *Record[T]) Table() string {
	var zero T
	return zero.TableName()
}

// Field returns the in-memory value of one column.
func (r *Record[T]) Field(name string) (any, error) {
	s, err := schemaOf[T]()
	if err != nil {
		return nil, err
	}
	if name == idColumn {
		return r.id, nil
	}
	c, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return c.field(reflect.ValueOf(&r.data)).Interface(), nil
}

/*──────────────────────────────── load ────────────────────────────────────*/

// Load replaces the in-memory entity with the row for id.
func (r *Record[T]) Load(ctx context.Context, id int64) (err error) {
	const op = "load"
	s, err := schemaOf[T]()
	if err != nil {
		return err
	}
	defer r.observe(op, s.table, time.Now(), &err)

	if id <= 0 {
		return r.fail(op, s.table, id, ErrStaleIdentity, fmt.Errorf("invalid id %d", id))
	}

	var fresh T
	err = r.backend.SelectOne(ctx, s.table, id, s.columns, &fresh)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		var zero T
		r.id, r.data = id, zero
		return r.silence(op, s.table, id, ErrNotFound)
	case err != nil:
		return &Error{Op: op, Table: s.table, ID: id, Err: err}
	}

	r.id, r.data = id, fresh
	return nil
}

/*────────────────────────────── set field ─────────────────────────────────*/

// SetField writes one column and mirrors it in memory.  It returns the
// Record so calls can be chained.
func (r *Record[T]) SetField(ctx context.Context, name string, value any) (_ *Record[T], err error) {
	const op = "set_field"
	s, err := schemaOf[T]()
	if err != nil {
		return r, err
	}
	defer r.observe(op, s.table, time.Now(), &err)

	c, err := s.lookup(name)
	if err != nil {
		return r, r.fail(op, s.table, r.id, nil, err)
	}
	if r.opts.version != "" && name == r.opts.version {
		return r, r.fail(op, s.table, r.id, ErrReadOnly, fmt.Errorf("%q is the version column", name))
	}
	val, err := convert(c.typ, value)
	if err != nil {
		return r, r.fail(op, s.table, r.id, nil, err)
	}

	if r.opts.legacy {
		c.field(reflect.ValueOf(&r.data)).Set(val)
	}

	if r.id <= 0 {
		return r, r.silence(op, s.table, r.id, ErrStaleIdentity)
	}

	if r.opts.version != "" {
		if err := r.setVersioned(ctx, s, name, value); err != nil {
			return r, err
		}
		c.field(reflect.ValueOf(&r.data)).Set(val)
		return r, nil
	}

	n, err := r.backend.Update(ctx, s.table, r.id, name, value)
	if err != nil {
		return r, r.fail(op, s.table, r.id, ErrWriteFailure, err)
	}
	if n == 0 {
		if err := r.silence(op, s.table, r.id, ErrStaleIdentity); err != nil {
			return r, err
		}
	}

	c.field(reflect.ValueOf(&r.data)).Set(val)
	return r, nil
}

// setVersioned performs a compare-and-swap on the version column and bumps
// the in-memory counter on success.
func (r *Record[T]) setVersioned(ctx context.Context, s *schema, name string, value any) error {
	const op = "set_field"
	vb, ok := r.backend.(VersionedBackend)
	if !ok {
		return r.fail(op, s.table, r.id, nil, fmt.Errorf("backend %T does not support versioned updates", r.backend))
	}
	vc, err := s.lookup(r.opts.version)
	if err != nil {
		return r.fail(op, s.table, r.id, nil, err)
	}
	vf := vc.field(reflect.ValueOf(&r.data))
	if !isSigned(vf.Kind()) {
		return r.fail(op, s.table, r.id, ErrFieldType, fmt.Errorf("version column %q must be a signed integer", r.opts.version))
	}
	current := vf.Int()

	n, err := vb.UpdateVersioned(ctx, s.table, r.id, name, value, r.opts.version, current)
	if err != nil {
		return r.fail(op, s.table, r.id, ErrWriteFailure, err)
	}
	if n > 0 {
		vf.SetInt(current + 1)
		return nil
	}

	exists, err := vb.Exists(ctx, s.table, r.id)
	if err != nil {
		return r.fail(op, s.table, r.id, nil, err)
	}
	if !exists {
		if err := r.silence(op, s.table, r.id, ErrStaleIdentity); err != nil {
			return err
		}
		return nil
	}
	return r.fail(op, s.table, r.id, ErrConflict, fmt.Errorf("expected version %d", current))
}

/*──────────────────────────────── create ──────────────────────────────────*/

// Create inserts a row built from fields and captures the generated id.
func (r *Record[T]) Create(ctx context.Context, fields map[string]any) (_ int64, err error) {
	const op = "create"
	s, err := schemaOf[T]()
	if err != nil {
		return 0, err
	}
	defer r.observe(op, s.table, time.Now(), &err)

	if r.id > 0 && !r.opts.legacy {
		return 0, r.fail(op, s.table, r.id, ErrReadOnly, errors.New("record already has an identity"))
	}

	// Memory mirrors exactly the supplied fields; column defaults applied by
	// the backend are only visible after a Load.
	var next T
	nv := reflect.ValueOf(&next)
	for name, value := range fields {
		c, err := s.lookup(name)
		if err != nil {
			return 0, r.fail(op, s.table, 0, nil, err)
		}
		if name == r.opts.version {
			return 0, r.fail(op, s.table, 0, ErrReadOnly, fmt.Errorf("%q is the version column", name))
		}
		val, err := convert(c.typ, value)
		if err != nil {
			return 0, r.fail(op, s.table, 0, nil, err)
		}
		c.field(nv).Set(val)
	}

	row := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	if r.opts.version != "" {
		vc, err := s.lookup(r.opts.version)
		if err != nil {
			return 0, r.fail(op, s.table, 0, nil, err)
		}
		vf := vc.field(nv)
		if !isSigned(vf.Kind()) {
			return 0, r.fail(op, s.table, 0, ErrFieldType, fmt.Errorf("version column %q must be a signed integer", r.opts.version))
		}
		vf.SetInt(1)
		row[r.opts.version] = int64(1)
	}

	if r.opts.legacy {
		r.data = next
	}

	id, err := r.backend.Insert(ctx, s.table, row)
	if err != nil {
		return 0, r.fail(op, s.table, 0, ErrWriteFailure, err)
	}

	r.id, r.data = id, next
	return id, nil
}

/*──────────────────────────────── delete ──────────────────────────────────*/

// Delete removes the row.  The in-memory entity is left as it was; callers
// must stop using the Record afterwards.
func (r *Record[T]) Delete(ctx context.Context) (err error) {
	const op = "delete"
	s, err := schemaOf[T]()
	if err != nil {
		return err
	}
	defer r.observe(op, s.table, time.Now(), &err)

	if r.id <= 0 {
		return r.silence(op, s.table, r.id, ErrStaleIdentity)
	}

	n, err := r.backend.Delete(ctx, s.table, r.id)
	if err != nil {
		return r.fail(op, s.table, r.id, ErrWriteFailure, err)
	}
	if n == 0 {
		return r.silence(op, s.table, r.id, ErrStaleIdentity)
	}
	return nil
}

/*──────────────────────────────── helpers ─────────────────────────────────*/

func (r *Record[T]) fail(op, table string, id int64, kind, cause error) error {
	if id < 0 {
		id = 0
	}
	return &Error{Op: op, Table: table, ID: id, Kind: kind, Err: cause}
}

// silence returns kind as an *Error in strict mode.  In legacy mode it logs
// the swallowed outcome and returns nil.
func (r *Record[T]) silence(op, table string, id int64, kind error) error {
	if r.opts.legacy {
		zap.L().Warn("record outcome silenced by legacy mode",
			zap.String("op", op),
			zap.String("table", table),
			zap.Int64("id", id),
			zap.String("outcome", kind.Error()))
		return nil
	}
	return r.fail(op, table, id, kind, nil)
}

func (r *Record[T]) observe(op, table string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	metrics.RecordOperationsTotal.WithLabelValues(table, op, outcome(err)).Inc()
	zap.L().Debug("record op",
		zap.String("op", op),
		zap.String("table", table),
		zap.Int64("id", r.id),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
}
