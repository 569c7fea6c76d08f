package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/monopay/monopay/store"
	"github.com/monopay/monopay/store/sql/migrations"
)

// Store implements store.Store using a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	q       *queries
	now     func() time.Time
}

// Config holds SQL store configuration.
type Config struct {
	// Dialect specifies the database type (postgres, mysql).
	Dialect Dialect

	// DB is an existing database connection.
	// If provided, DSN is ignored.
	DB *sql.DB

	// DSN is the data source name for connecting to the database.
	DSN string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum lifetime of a connection.
	ConnMaxLifetime time.Duration

	// Now overrides the clock used for updated_at and ledger expiry.
	Now func() time.Time
}

// New creates a new SQL store.
func New(cfg *Config) (*Store, error) {
	db := cfg.DB
	if db == nil {
		var err error
		db, err = sql.Open(cfg.Dialect.driverName(), cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Dialect, err)
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		db:      db,
		dialect: cfg.Dialect,
		q:       cfg.Dialect.queries(),
		now:     now,
	}, nil
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded goose migrations for the dialect.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(s.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, s.db, s.dialect.migrationsDir()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreateUser inserts a user. A unique violation on email maps to
// store.ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	_, err := s.db.ExecContext(ctx, s.q.insertUser,
		u.ID,
		u.Email,
		u.FullName,
		u.PasswordHash,
		u.EmailVerified,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if s.q.isUniqueViolation(err) {
			return store.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, s.q.selectUserByEmail, email)
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.getUser(ctx, s.q.selectUserByID, id)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (*store.User, error) {
	u := &store.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// UpdatePasswordHash replaces the password hash of the user with email.
func (s *Store) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, s.q.updatePasswordHash, passwordHash, s.now().UTC(), email)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// MarkResetTokenUsed records a redeemed reset token. Recording the same
// hash twice is not an error.
func (s *Store) MarkResetTokenUsed(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, s.q.insertUsedToken, tokenHash, expiresAt.UTC()); err != nil {
		return fmt.Errorf("mark reset token: %w", err)
	}
	return nil
}

// IsResetTokenUsed reports whether tokenHash is recorded and unexpired.
func (s *Store) IsResetTokenUsed(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q.selectUsedToken, tokenHash, s.now().UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select reset token: %w", err)
	}
	return true, nil
}

// DeleteExpiredResetTokens removes expired ledger entries.
func (s *Store) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q.deleteExpiredTokens, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete reset tokens: %w", err)
	}
	return res.RowsAffected()
}

var _ store.Store = (*Store)(nil)
