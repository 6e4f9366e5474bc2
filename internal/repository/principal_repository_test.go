package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/eventdesk/internal/model"
)

var principalCols = []string{"id", "email", "password_hash", "full_name", "is_active", "is_superuser", "created_at", "updated_at"}

func newMock(t *testing.T) (*PrincipalRepo, *ResourceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPrincipalRepo(db, model.VariantUser), NewResourceRepo(db, model.VariantUser), mock
}

func TestFindByEmail(t *testing.T) {
	repo, _, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(principalCols).AddRow(1, "a@x.com", "hash", "Alice", true, false, now, now))

	p, err := repo.FindByEmail(context.Background(), " a@x.com ")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if p.ID != 1 || p.Email != "a@x.com" || p.FullName == nil || *p.FullName != "Alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.Variant != model.VariantUser || !p.IsActive || p.IsPrivileged {
		t.Fatalf("unexpected flags: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(principalCols))

	if _, err := repo.FindByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePrincipal(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE email = ? FOR UPDATE")).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, full_name, is_active, is_superuser)")).
		WithArgs("a@x.com", "hash", nil, true, false).
		WillReturnResult(sqlmock.NewResult(17, 1))
	mock.ExpectCommit()

	p := &model.Principal{Email: "a@x.com", PasswordHash: "hash", IsActive: true}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != 17 || p.Variant != model.VariantUser {
		t.Fatalf("unexpected principal after create: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreatePrincipalConflict(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE email = ? FOR UPDATE")).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Principal{Email: "a@x.com", PasswordHash: "hash"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreatePrincipalDuplicateKey(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE email = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Principal{Email: "a@x.com", PasswordHash: "hash"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict from duplicate key, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePrincipalEmailConflict(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE email = ? AND id <> ? FOR UPDATE")).
		WithArgs("b@x.com", uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Principal{ID: 1, Email: "b@x.com", PasswordHash: "hash"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePrincipal(t *testing.T) {
	repo, _, mock := newMock(t)
	name := "Alice"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE email = ? AND id <> ? FOR UPDATE")).
		WithArgs("a@x.com", uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email = ?, password_hash = ?, full_name = ?, is_active = ?, is_superuser = ?")).
		WithArgs("a@x.com", "hash", "Alice", false, false, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &model.Principal{ID: 1, Email: "a@x.com", PasswordHash: "hash", FullName: &name}
	if err := repo.Update(context.Background(), p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteCascade(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE owner_id = ?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteCascade(context.Background(), 5); err != nil {
		t.Fatalf("DeleteCascade: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteCascadeRollsBackOnFailure(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE owner_id = ?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(uint64(5)).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	if err := repo.DeleteCascade(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}
	// Rollback instead of commit: the item deletes never become visible.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteCascadeNotFound(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if err := repo.DeleteCascade(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListPrincipals(t *testing.T) {
	repo, _, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY id LIMIT ? OFFSET ?")).
		WithArgs(2, 10).
		WillReturnRows(sqlmock.NewRows(principalCols).
			AddRow(11, "k@x.com", "h", nil, true, false, now, now).
			AddRow(12, "l@x.com", "h", nil, false, true, now, now))

	items, total, err := repo.List(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 12 || len(items) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(items))
	}
	if items[1].IsActive || !items[1].IsPrivileged || items[0].FullName != nil {
		t.Fatalf("unexpected row mapping: %+v %+v", items[0], items[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOrganizerRepoUsesOrganizerTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewPrincipalRepo(db, model.VariantOrganizer)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM organizers WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE owner_id = ?")).
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM organizers WHERE id = ?")).
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteCascade(context.Background(), 2); err != nil {
		t.Fatalf("DeleteCascade: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
