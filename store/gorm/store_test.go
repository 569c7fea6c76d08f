package gorm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm/logger"

	"github.com/monopay/monopay/store"
	"github.com/monopay/monopay/store/storetest"
)

var fixedNow = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(&Config{Conn: db, LogLevel: logger.Silent, Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s, mock
}

func TestRecordConversion(t *testing.T) {
	u := storetest.NewUser("ada@example.com")
	u.EmailVerified = true

	back := fromUser(u).toUser()
	if *back != *u {
		t.Errorf("round trip = %+v, want %+v", back, u)
	}
	if got := (userRecord{}).TableName(); got != "users" {
		t.Errorf("TableName() = %q", got)
	}
	if got := (usedResetTokenRecord{}).TableName(); got != "used_reset_tokens" {
		t.Errorf("TableName() = %q", got)
	}
}

func TestCreateUser(t *testing.T) {
	s, mock := newStoreWithMock(t)
	u := storetest.NewUser("ada@example.com")

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(&pgconn.PgError{Code: "23505"})
	err := s.CreateUser(context.Background(), storetest.NewUser("ada@example.com"))
	if !errors.Is(err, store.ErrUserExists) {
		t.Fatalf("got %v, want ErrUserExists", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s, mock := newStoreWithMock(t)
	u := storetest.NewUser("ada@example.com")

	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "password_hash", "email_verified", "created_at", "updated_at"}).
		AddRow(u.ID, u.Email, u.FullName, u.PasswordHash, false, u.CreatedAt, u.UpdatedAt)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).WillReturnRows(rows)

	got, err := s.GetUserByEmail(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got == nil || got.ID != u.ID || got.PasswordHash != u.PasswordHash {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := s.GetUserByID(context.Background(), "missing")
	if got != nil || err != nil {
		t.Fatalf("got %v, %v; want nil, nil", got, err)
	}
}

func TestUpdatePasswordHash_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.UpdatePasswordHash(context.Background(), "nobody@example.com", "x")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestResetLedger(t *testing.T) {
	s, mock := newStoreWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO "used_reset_tokens".*ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.MarkResetTokenUsed(ctx, "h1", fixedNow.Add(time.Minute)); err != nil {
		t.Fatalf("MarkResetTokenUsed error: %v", err)
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "used_reset_tokens"`).
		WithArgs("h1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	if used, err := s.IsResetTokenUsed(ctx, "h1"); err != nil || !used {
		t.Fatalf("IsResetTokenUsed = %v, %v; want true, nil", used, err)
	}

	mock.ExpectExec(`DELETE FROM "used_reset_tokens" WHERE expires_at <= \$1`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 2))
	if n, err := s.DeleteExpiredResetTokens(ctx); err != nil || n != 2 {
		t.Fatalf("DeleteExpiredResetTokens = %d, %v; want 2, nil", n, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
