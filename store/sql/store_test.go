package sql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/monopay/monopay/store"
)

var fixedNow = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

func newStoreWithMock(t *testing.T, d Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(&Config{Dialect: d, DB: db, Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s, mock
}

func sampleUser() *store.User {
	return &store.User{
		ID:           "6f1c2a9e-1111-4c1e-9a55-0d1e2f3a4b5c",
		Email:        "ada@example.com",
		FullName:     "Ada Lovelace",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
}

func userRows(u *store.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "full_name", "password_hash", "email_verified", "created_at", "updated_at"}).
		AddRow(u.ID, u.Email, u.FullName, u.PasswordHash, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
}

func TestDialect_Names(t *testing.T) {
	tests := []struct {
		dialect        Dialect
		driver, goose  string
		migrationsPath string
	}{
		{PostgreSQL, "pgx", "postgres", "postgres"},
		{MySQL, "mysql", "mysql", "mysql"},
		{Dialect("unknown"), "pgx", "postgres", "postgres"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			if got := tt.dialect.driverName(); got != tt.driver {
				t.Errorf("driverName() = %q, want %q", got, tt.driver)
			}
			if got := tt.dialect.gooseDialect(); got != tt.goose {
				t.Errorf("gooseDialect() = %q, want %q", got, tt.goose)
			}
			if got := tt.dialect.migrationsDir(); got != tt.migrationsPath {
				t.Errorf("migrationsDir() = %q, want %q", got, tt.migrationsPath)
			}
		})
	}
}

func TestCreateUser_Postgres(t *testing.T) {
	s, mock := newStoreWithMock(t, PostgreSQL)
	u := sampleUser()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*full_name,\s*password_hash,\s*email_verified,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`
	mock.ExpectExec(q).
		WithArgs(u.ID, u.Email, u.FullName, u.PasswordHash, false, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
	}{
		{"postgres 23505", PostgreSQL, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}},
		{"mysql 1062", MySQL, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newStoreWithMock(t, tt.dialect)
			mock.ExpectExec(`INSERT\s+INTO\s+users`).WillReturnError(tt.err)

			if err := s.CreateUser(context.Background(), sampleUser()); !errors.Is(err, store.ErrUserExists) {
				t.Fatalf("got %v, want ErrUserExists", err)
			}
		})
	}
}

func TestCreateUser_OtherErrorWrapped(t *testing.T) {
	s, mock := newStoreWithMock(t, PostgreSQL)
	mock.ExpectExec(`INSERT\s+INTO\s+users`).WillReturnError(&pgconn.PgError{Code: "23502"})

	err := s.CreateUser(context.Background(), sampleUser())
	if err == nil || errors.Is(err, store.ErrUserExists) {
		t.Fatalf("expected a non-conflict error, got %v", err)
	}
	if !regexp.MustCompile(`^insert user: `).MatchString(err.Error()) {
		t.Errorf("expected wrapped error, got %q", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s, mock := newStoreWithMock(t, MySQL)
	u := sampleUser()

	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\?$`
	mock.ExpectQuery(q).WithArgs(u.Email).WillReturnRows(userRows(u))

	got, err := s.GetUserByEmail(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got == nil || got.ID != u.ID || got.PasswordHash != u.PasswordHash || !got.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t, PostgreSQL)
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	got, err := s.GetUserByID(context.Background(), "missing")
	if got != nil || err != nil {
		t.Fatalf("got %v, %v; want nil, nil", got, err)
	}
}

func TestGetUser_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t, PostgreSQL)
	mock.ExpectQuery(`FROM\s+users`).WillReturnError(errors.New("db down"))

	_, err := s.GetUserByEmail(context.Background(), "ada@example.com")
	if err == nil || !regexp.MustCompile(`select user: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+email\s*=\s*\$3$`

	t.Run("updated", func(t *testing.T) {
		s, mock := newStoreWithMock(t, PostgreSQL)
		mock.ExpectExec(q).
			WithArgs("$2a$10$new", fixedNow, "ada@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := s.UpdatePasswordHash(context.Background(), "ada@example.com", "$2a$10$new"); err != nil {
			t.Fatalf("UpdatePasswordHash error: %v", err)
		}
	})

	t.Run("no such user", func(t *testing.T) {
		s, mock := newStoreWithMock(t, PostgreSQL)
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdatePasswordHash(context.Background(), "nobody@example.com", "x")
		if !errors.Is(err, store.ErrUserNotFound) {
			t.Fatalf("got %v, want ErrUserNotFound", err)
		}
	})
}

func TestResetLedger(t *testing.T) {
	s, mock := newStoreWithMock(t, PostgreSQL)
	ctx := context.Background()
	exp := fixedNow.Add(15 * time.Minute)

	mock.ExpectExec(`INSERT\s+INTO\s+used_reset_tokens.*ON\s+CONFLICT`).
		WithArgs("h1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.MarkResetTokenUsed(ctx, "h1", exp); err != nil {
		t.Fatalf("MarkResetTokenUsed error: %v", err)
	}

	mock.ExpectQuery(`SELECT\s+1\s+FROM\s+used_reset_tokens`).
		WithArgs("h1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	if used, err := s.IsResetTokenUsed(ctx, "h1"); err != nil || !used {
		t.Fatalf("IsResetTokenUsed = %v, %v; want true, nil", used, err)
	}

	mock.ExpectQuery(`SELECT\s+1\s+FROM\s+used_reset_tokens`).
		WithArgs("h2", fixedNow).
		WillReturnError(sql.ErrNoRows)
	if used, err := s.IsResetTokenUsed(ctx, "h2"); err != nil || used {
		t.Fatalf("IsResetTokenUsed = %v, %v; want false, nil", used, err)
	}

	mock.ExpectExec(`DELETE\s+FROM\s+used_reset_tokens\s+WHERE\s+expires_at\s*<=\s*\$1`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))
	if n, err := s.DeleteExpiredResetTokens(ctx); err != nil || n != 3 {
		t.Fatalf("DeleteExpiredResetTokens = %d, %v; want 3, nil", n, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrate_UsesDialectDirectory(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	for _, d := range []Dialect{PostgreSQL, MySQL} {
		t.Run(string(d), func(t *testing.T) {
			var gotDir string
			gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
				gotDir = dir
				return nil
			}
			s, _ := newStoreWithMock(t, d)
			if err := s.Migrate(context.Background()); err != nil {
				t.Fatalf("Migrate error: %v", err)
			}
			if gotDir != d.migrationsDir() {
				t.Errorf("dir = %q, want %q", gotDir, d.migrationsDir())
			}
		})
	}
}

func TestMigrate_Error(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })
	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }

	s, _ := newStoreWithMock(t, PostgreSQL)
	err := s.Migrate(context.Background())
	if err == nil || !regexp.MustCompile(`^migrate: boom$`).MatchString(err.Error()) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
}
