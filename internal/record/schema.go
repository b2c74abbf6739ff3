// internal/record/schema.go
//
// Column mapping for entity structs.
//
// Context
// -------
// Each entity declares its columns as struct fields with `db:"…"` tags.
// We reuse sqlx's reflectx mapper so the names we validate against are the
// same names sqlx scans into: tagged fields use the tag, untagged fields use
// the lower-cased field name, and anonymous embedded structs are flattened.
//
// A schema is computed once per entity type and cached in a sync.Map.
//
// Notes
// -----
// • Nested (non-embedded) struct fields are skipped unless they are
//   time.Time or implement sql.Scanner.
// • An entity may not declare `db:"id"`.  The identifier is owned by Record.

package record

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

const idColumn = "id"

var (
	mapper  = reflectx.NewMapperFunc("db", sqlx.NameMapper)
	schemas sync.Map // reflect.Type → *schema

	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

type column struct {
	name  string
	index []int
	typ   reflect.Type
}

type schema struct {
	table   string
	columns []string // declaration order
	byName  map[string]*column
}

func schemaOf[T Entity]() (*schema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record: entity %T must be a struct", zero)
	}
	if v, ok := schemas.Load(t); ok {
		return v.(*schema), nil
	}

	table := zero.TableName()
	if table == "" {
		return nil, fmt.Errorf("record: entity %s has an empty table name", t)
	}

	s := &schema{table: table, byName: make(map[string]*column)}
	for _, fi := range mapper.TypeMap(t).Index {
		if fi == nil || len(fi.Index) == 0 || fi.Embedded || fi.Name == "-" {
			continue
		}
		if strings.Contains(fi.Path, ".") || !isLeaf(fi.Field.Type) {
			continue
		}
		if fi.Name == idColumn {
			return nil, fmt.Errorf("record: entity %s declares column %q; the identifier belongs to Record", t, idColumn)
		}
		if _, dup := s.byName[fi.Name]; dup {
			continue // shallower field wins, as with Go promotion
		}
		s.byName[fi.Name] = &column{name: fi.Name, index: fi.Index, typ: fi.Field.Type}
		s.columns = append(s.columns, fi.Name)
	}

	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*schema), nil
}

// isLeaf reports whether a field type maps onto a single column.
func isLeaf(t reflect.Type) bool {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return true
	}
	return base == timeType || reflect.PointerTo(base).Implements(scannerType)
}

// lookup returns the column for name or an ErrUnknownField error.
func (s *schema) lookup(name string) (*column, error) {
	if name == idColumn {
		return nil, fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	c, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a column of %s", ErrUnknownField, name, s.table)
	}
	return c, nil
}

// field returns the addressable struct field for c inside v (a *T value).
func (c *column) field(v reflect.Value) reflect.Value {
	return reflectx.FieldByIndexes(reflect.Indirect(v), c.index)
}

/*──────────────────────────── assignment ──────────────────────────────────*/

// convert produces a value of type t from v without touching any entity.
// Conversions are deliberately narrow: assignable types, pointer wrapping,
// integer/float widening without overflow, and sql.Scanner targets.
func convert(t reflect.Type, v any) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return out, nil
		}
		if reflect.PointerTo(t).Implements(scannerType) {
			err := out.Addr().Interface().(sql.Scanner).Scan(nil)
			return out, err
		}
		return out, fmt.Errorf("%w: nil is not a valid %s", ErrFieldType, t)
	}

	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(t):
		out.Set(src)
		return out, nil

	case t.Kind() == reflect.Pointer && src.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(src)
		out.Set(p)
		return out, nil

	case isSigned(src.Kind()) && isInt(t.Kind()):
		if isUint(t.Kind()) {
			if src.Int() < 0 || out.OverflowUint(uint64(src.Int())) {
				return out, fmt.Errorf("%w: %v overflows %s", ErrFieldType, v, t)
			}
			out.SetUint(uint64(src.Int()))
			return out, nil
		}
		if out.OverflowInt(src.Int()) {
			return out, fmt.Errorf("%w: %v overflows %s", ErrFieldType, v, t)
		}
		out.SetInt(src.Int())
		return out, nil

	case isUint(src.Kind()) && isInt(t.Kind()):
		if isUint(t.Kind()) {
			if out.OverflowUint(src.Uint()) {
				return out, fmt.Errorf("%w: %v overflows %s", ErrFieldType, v, t)
			}
			out.SetUint(src.Uint())
			return out, nil
		}
		if src.Uint() > 1<<63-1 || out.OverflowInt(int64(src.Uint())) {
			return out, fmt.Errorf("%w: %v overflows %s", ErrFieldType, v, t)
		}
		out.SetInt(int64(src.Uint()))
		return out, nil

	case isFloat(t.Kind()) && (isFloat(src.Kind()) || isInt(src.Kind())):
		out.Set(src.Convert(t))
		return out, nil

	case reflect.PointerTo(t).Implements(scannerType):
		if err := out.Addr().Interface().(sql.Scanner).Scan(v); err != nil {
			return out, errors.Join(ErrFieldType, err)
		}
		return out, nil
	}

	return out, fmt.Errorf("%w: cannot assign %s to %s", ErrFieldType, src.Type(), t)
}

// isInt covers signed and unsigned integer kinds.
func isInt(k reflect.Kind) bool {
	return isSigned(k) || isUint(k)
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
