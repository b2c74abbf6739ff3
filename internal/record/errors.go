// internal/record/errors.go
//
// Error taxonomy for Record operations.
//
// Context
// -------
// Callers must be able to tell three outcomes apart that older releases
// folded into silence:
//
//   - ErrNotFound       – a load targeted an id with no row.
//   - ErrStaleIdentity  – SetField or Delete ran without an id, or the id
//     matched zero rows.
//   - ErrWriteFailure   – the backend rejected an insert, update, or delete.
//
// Validation kinds (ErrUnknownField, ErrFieldType, ErrReadOnly) are raised
// before any round-trip.  ErrConflict is reserved for versioned records.
// Backends wrap driver constraint errors with ErrConstraint so the cause
// survives alongside ErrWriteFailure.
//
// Notes
// -----
// • Every failure is a *Error.  Unwrap returns both Kind and Err, so
//   errors.Is matches either sentinel.
// • Oxford commas, two spaces after periods.

package record

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrStaleIdentity = errors.New("record identity absent or dangling")
	ErrWriteFailure  = errors.New("record write failed")
	ErrConstraint    = errors.New("constraint violation")
	ErrConflict      = errors.New("record modified concurrently")
	ErrUnknownField  = errors.New("unknown field")
	ErrFieldType     = errors.New("field type mismatch")
	ErrReadOnly      = errors.New("field is read-only")
)

// Error describes one failed Record operation.
type Error struct {
	Op    string // load, set_field, create, delete
	Table string
	ID    int64 // zero when the record had no identity
	Kind  error // one of the sentinels above, or nil for read failures
	Err   error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("record: %s %s", e.Op, e.Table)
	if e.ID > 0 {
		msg += fmt.Sprintf("#%d", e.ID)
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		return msg + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return msg + ": " + e.Kind.Error()
	case e.Err != nil:
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// outcome maps an error to the metrics label used by record_operations_total.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStaleIdentity):
		return "stale"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrWriteFailure):
		return "write_failure"
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrFieldType), errors.Is(err, ErrReadOnly):
		return "invalid"
	default:
		return "error"
	}
}
