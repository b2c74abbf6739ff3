// internal/record/record_test.go
//
// Unit-tests for Record using sqlmock behind database.Store.
//
// Run: go test ./internal/record -v

package record_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/plubo/internal/database"
	"github.com/yanizio/plubo/internal/record"
)

type gadget struct {
	Name  string  `db:"name"`
	Color *string `db:"color"`
}

func (gadget) TableName() string { return "widgets" }

type versioned struct {
	Name    string `db:"name"`
	Version int64  `db:"version"`
}

func (versioned) TableName() string { return "widgets" }

func newMock(t *testing.T) (*database.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewStore(sqlx.NewDb(db, "mysql"), ""), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

const (
	selectGadget = "SELECT `name`, `color` FROM `widgets` WHERE `id` = ? LIMIT 1"
	insertName   = "INSERT INTO `widgets` (`name`) VALUES (?)"
	updateName   = "UPDATE `widgets` SET `name` = ? WHERE `id` = ?"
	deleteRow    = "DELETE FROM `widgets` WHERE `id` = ?"
)

func TestCreateCapturesID(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q(insertName)).
		WithArgs("Acme").
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := record.New[gadget](store)
	id, err := r.Create(context.Background(), map[string]any{"name": "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, ok := r.ID(); id != 1 || got != 1 || !ok {
		t.Fatalf("id = %d/%d ok=%v, want 1", id, got, ok)
	}
	if r.Fields().Name != "Acme" {
		t.Fatalf("name = %q", r.Fields().Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLoadFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q(selectGadget)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "color"}).AddRow("Acme", "red"))

	r, err := record.Get[gadget](context.Background(), store, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	f := r.Fields()
	if f.Name != "Acme" || f.Color == nil || *f.Color != "red" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLoadNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q(selectGadget)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "color"}))

	r, err := record.Get[gadget](context.Background(), store, 9)
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if r.Fields() != (gadget{}) {
		t.Fatalf("fields populated on miss: %+v", r.Fields())
	}
	if id, _ := r.ID(); id != 9 {
		t.Fatalf("id = %d, want 9", id)
	}
}

func TestLoadNotFoundLegacy(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q(selectGadget)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "color"}))

	r, err := record.Get[gadget](context.Background(), store, 9, record.WithLegacySilent(true))
	if err != nil {
		t.Fatalf("legacy Get returned %v", err)
	}
	if r.Fields() != (gadget{}) {
		t.Fatalf("fields populated on miss: %+v", r.Fields())
	}
}

func TestLoadBackendError(t *testing.T) {
	store, mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery(q(selectGadget)).WithArgs(int64(1)).WillReturnError(boom)

	_, err := record.Get[gadget](context.Background(), store, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, record.ErrNotFound) {
		t.Fatalf("backend error reported as not found")
	}
}

func TestSetFieldZeroRowsIsStale(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q(insertName)).WithArgs("Acme").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q(updateName)).WithArgs("Beta", int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	r := record.New[gadget](store)
	if _, err := r.Create(ctx, map[string]any{"name": "Acme"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := r.SetField(ctx, "name", "Beta")
	if !errors.Is(err, record.ErrStaleIdentity) {
		t.Fatalf("err = %v, want ErrStaleIdentity", err)
	}
	if r.Fields().Name != "Acme" {
		t.Fatalf("memory diverged: %q", r.Fields().Name)
	}
}

func TestSetFieldZeroRowsLegacy(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q(selectGadget)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "color"}).AddRow("Acme", nil))
	mock.ExpectExec(q(updateName)).WithArgs("Beta", int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	r, err := record.Get[gadget](ctx, store, 4, record.WithLegacySilent(true))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.SetField(ctx, "name", "Beta"); err != nil {
		t.Fatalf("legacy SetField: %v", err)
	}
	if r.Fields().Name != "Beta" {
		t.Fatalf("legacy mode should update memory optimistically, got %q", r.Fields().Name)
	}
}

func TestSetFieldWithoutIdentity(t *testing.T) {
	store, mock := newMock(t)

	r := record.New[gadget](store)
	_, err := r.SetField(context.Background(), "name", "x")
	if !errors.Is(err, record.ErrStaleIdentity) {
		t.Fatalf("err = %v, want ErrStaleIdentity", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL expected: %v", err)
	}
}

func TestSetFieldValidation(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q(selectGadget)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "color"}).AddRow("Acme", nil))

	ctx := context.Background()
	r, err := record.Get[gadget](ctx, store, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	cases := []struct {
		field string
		value any
		want  error
	}{
		{"nope", "x", record.ErrUnknownField},
		{"id", int64(2), record.ErrReadOnly},
		{"name", 42, record.ErrFieldType},
	}
	for _, tc := range cases {
		if _, err := r.SetField(ctx, tc.field, tc.value); !errors.Is(err, tc.want) {
			t.Errorf("SetField(%q) err = %v, want %v", tc.field, err, tc.want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("validation must not reach the backend: %v", err)
	}
}

func TestSetFieldChains(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q(selectGadget)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "color"}).AddRow("Acme", nil))
	mock.ExpectExec(q(updateName)).WithArgs("Beta", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE `widgets` SET `color` = ? WHERE `id` = ?")).
		WithArgs("blue", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	r, err := record.Get[gadget](ctx, store, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	r, err = r.SetField(ctx, "name", "Beta")
	if err == nil {
		_, err = r.SetField(ctx, "color", "blue")
	}
	if err != nil {
		t.Fatalf("SetField chain: %v", err)
	}
	f := r.Fields()
	if f.Name != "Beta" || f.Color == nil || *f.Color != "blue" {
		t.Fatalf("unexpected fields: %+v", f)
	}
}

func TestCreateConstraintViolation(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q(insertName)).
		WithArgs("Acme").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Acme'"})

	r := record.New[gadget](store)
	_, err := r.Create(context.Background(), map[string]any{"name": "Acme"})
	if !errors.Is(err, record.ErrWriteFailure) || !errors.Is(err, record.ErrConstraint) {
		t.Fatalf("err = %v, want ErrWriteFailure and ErrConstraint", err)
	}
	if _, ok := r.ID(); ok {
		t.Fatalf("id set after failed insert")
	}
	if r.Fields().Name != "" {
		t.Fatalf("strict mode copied fields before insert succeeded")
	}
}

func TestCreateFailureLegacyCopiesFirst(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q(insertName)).
		WithArgs("Acme").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Acme'"})

	r := record.New[gadget](store, record.WithLegacySilent(true))
	if _, err := r.Create(context.Background(), map[string]any{"name": "Acme"}); err == nil {
		t.Fatalf("backend failures must propagate in legacy mode")
	}
	if r.Fields().Name != "Acme" {
		t.Fatalf("legacy mode should copy fields before insert")
	}
	if _, ok := r.ID(); ok {
		t.Fatalf("id set after failed insert")
	}
}

func TestCreateTwiceRejected(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q(insertName)).WithArgs("Acme").WillReturnResult(sqlmock.NewResult(3, 1))

	ctx := context.Background()
	r := record.New[gadget](store)
	if _, err := r.Create(ctx, map[string]any{"name": "Acme"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create(ctx, map[string]any{"name": "Other"}); !errors.Is(err, record.ErrReadOnly) {
		t.Fatalf("second Create err = %v, want ErrReadOnly", err)
	}
	if id, _ := r.ID(); id != 3 {
		t.Fatalf("id changed to %d", id)
	}
}

func TestDeleteTwice(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q(insertName)).WithArgs("Acme").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q(deleteRow)).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(deleteRow)).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	r := record.New[gadget](store)
	if _, err := r.Create(ctx, map[string]any{"name": "Acme"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Delete(ctx); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := r.Delete(ctx); !errors.Is(err, record.ErrStaleIdentity) {
		t.Fatalf("second Delete err = %v, want ErrStaleIdentity", err)
	}
	if r.Fields().Name != "Acme" {
		t.Fatalf("Delete must not clear memory")
	}
}

func TestDeleteWithoutIdentity(t *testing.T) {
	store, _ := newMock(t)
	ctx := context.Background()

	if err := record.New[gadget](store).Delete(ctx); !errors.Is(err, record.ErrStaleIdentity) {
		t.Fatalf("strict err = %v, want ErrStaleIdentity", err)
	}
	if err := record.New[gadget](store, record.WithLegacySilent(true)).Delete(ctx); err != nil {
		t.Fatalf("legacy err = %v, want nil", err)
	}
}

func TestVersionedConflict(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q("SELECT `name`, `version` FROM `widgets` WHERE `id` = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "version"}).AddRow("Acme", 1))
	mock.ExpectExec(q("UPDATE `widgets` SET `name` = ?, `version` = `version` + 1 WHERE `id` = ? AND `version` = ?")).
		WithArgs("Beta", int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT 1 FROM `widgets` WHERE `id` = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ctx := context.Background()
	r, err := record.Get[versioned](ctx, store, 1, record.WithVersion("version"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.SetField(ctx, "name", "Beta"); !errors.Is(err, record.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if f := r.Fields(); f.Name != "Acme" || f.Version != 1 {
		t.Fatalf("memory changed on conflict: %+v", f)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestVersionedCreateSeedsVersion(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO `widgets` (`name`, `version`) VALUES (?, ?)")).
		WithArgs("Acme", int64(1)).
		WillReturnResult(sqlmock.NewResult(5, 1))

	r := record.New[versioned](store, record.WithVersion("version"))
	if _, err := r.Create(context.Background(), map[string]any{"name": "Acme"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Fields().Version != 1 {
		t.Fatalf("version = %d, want 1", r.Fields().Version)
	}

	_, err := r.SetField(context.Background(), "version", int64(9))
	if !errors.Is(err, record.ErrReadOnly) {
		t.Fatalf("setting version column err = %v, want ErrReadOnly", err)
	}
}
