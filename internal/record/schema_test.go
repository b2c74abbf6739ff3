package record

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"
)

type audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type sample struct {
	audit
	Name    string         `db:"name"`
	Note    sql.NullString `db:"note"`
	Count   uint16         `db:"count"`
	Score   float64
	Owner   *string   `db:"owner"`
	Skip    string    `db:"-"`
	Nested  struct{ A int } `db:"nested"`
	private int
}

func (sample) TableName() string { return "samples" }

type withID struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func (withID) TableName() string { return "bad" }

type noTable struct{ Name string }

func (noTable) TableName() string { return "" }

func TestSchemaColumns(t *testing.T) {
	s, err := schemaOf[sample]()
	if err != nil {
		t.Fatalf("schemaOf: %v", err)
	}
	if s.table != "samples" {
		t.Fatalf("table = %q", s.table)
	}

	want := map[string]bool{
		"created_at": true, "name": true, "note": true,
		"count": true, "score": true, "owner": true,
	}
	if len(s.columns) != len(want) {
		t.Fatalf("columns = %v, want keys of %v", s.columns, want)
	}
	for _, c := range s.columns {
		if !want[c] {
			t.Errorf("unexpected column %q", c)
		}
	}

	again, _ := schemaOf[sample]()
	if again != s {
		t.Errorf("schema not cached")
	}
}

func TestSchemaRejectsIDColumn(t *testing.T) {
	if _, err := schemaOf[withID](); err == nil {
		t.Fatal("expected error for entity declaring id")
	}
}

func TestSchemaRejectsEmptyTable(t *testing.T) {
	if _, err := schemaOf[noTable](); err == nil {
		t.Fatal("expected error for empty table name")
	}
}

func TestLookup(t *testing.T) {
	s, _ := schemaOf[sample]()

	if _, err := s.lookup("id"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("lookup(id) = %v, want ErrReadOnly", err)
	}
	if _, err := s.lookup("missing"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("lookup(missing) = %v, want ErrUnknownField", err)
	}
	if _, err := s.lookup("Skip"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("lookup(Skip) = %v, want ErrUnknownField", err)
	}
	if _, err := s.lookup("name"); err != nil {
		t.Errorf("lookup(name) = %v", err)
	}
}

func TestConvert(t *testing.T) {
	str := "x"
	cases := []struct {
		name    string
		typ     reflect.Type
		in      any
		want    any
		wantErr error
	}{
		{"assignable", reflect.TypeOf(""), "a", "a", nil},
		{"pointer wrap", reflect.TypeOf(&str), "x", "x", nil},
		{"nil pointer", reflect.TypeOf(&str), nil, (*string)(nil), nil},
		{"int widen", reflect.TypeOf(int64(0)), 7, int64(7), nil},
		{"int to uint16", reflect.TypeOf(uint16(0)), 65535, uint16(65535), nil},
		{"uint16 overflow", reflect.TypeOf(uint16(0)), 70000, nil, ErrFieldType},
		{"negative to uint", reflect.TypeOf(uint(0)), -1, nil, ErrFieldType},
		{"int8 overflow", reflect.TypeOf(int8(0)), 300, nil, ErrFieldType},
		{"int to float", reflect.TypeOf(float64(0)), 2, float64(2), nil},
		{"float to int refused", reflect.TypeOf(int64(0)), 2.5, nil, ErrFieldType},
		{"int to string refused", reflect.TypeOf(""), 65, nil, ErrFieldType},
		{"nil into string refused", reflect.TypeOf(""), nil, nil, ErrFieldType},
		{"scanner", reflect.TypeOf(sql.NullString{}), "n", sql.NullString{String: "n", Valid: true}, nil},
		{"scanner nil", reflect.TypeOf(sql.NullString{}), nil, sql.NullString{}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := convert(tc.typ, tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			v := got.Interface()
			if p, ok := v.(*string); ok && p != nil {
				v = *p
			}
			if !reflect.DeepEqual(v, tc.want) {
				t.Fatalf("got %#v, want %#v", v, tc.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(&Error{Op: "create", Table: "widgets", Kind: ErrWriteFailure, Err: cause})

	if !errors.Is(err, ErrWriteFailure) || !errors.Is(err, cause) {
		t.Fatalf("errors.Is failed for %v", err)
	}
	if got := err.Error(); got != "record: create widgets: record write failed: boom" {
		t.Fatalf("Error() = %q", got)
	}
	if outcome(err) != "write_failure" {
		t.Fatalf("outcome = %q", outcome(err))
	}
}
