// Package gorm provides a GORM-backed PostgreSQL store for MonoPay accounts.
package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/monopay/monopay/store"
)

// userRecord maps the users table.
type userRecord struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex:users_email_key;not null"`
	FullName      string    `gorm:"type:varchar(255);not null"`
	PasswordHash  string    `gorm:"type:varchar(255);not null"`
	EmailVerified bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

// usedResetTokenRecord maps the used_reset_tokens ledger.
type usedResetTokenRecord struct {
	TokenHash string    `gorm:"type:char(64);primaryKey"`
	ExpiresAt time.Time `gorm:"index:used_reset_tokens_expires_at_idx;not null"`
}

func (usedResetTokenRecord) TableName() string { return "used_reset_tokens" }

func fromUser(u *store.User) *userRecord {
	return &userRecord{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		PasswordHash:  u.PasswordHash,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r *userRecord) toUser() *store.User {
	return &store.User{
		ID:            r.ID,
		Email:         r.Email,
		FullName:      r.FullName,
		PasswordHash:  r.PasswordHash,
		EmailVerified: r.EmailVerified,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Store implements store.Store with GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Config holds GORM store configuration.
type Config struct {
	// DSN is a PostgreSQL connection string. Ignored when Conn is set.
	DSN string

	// Conn is an existing connection, mainly for tests.
	Conn *sql.DB

	// LogLevel sets GORM's own logger. Defaults to logger.Warn.
	LogLevel logger.LogLevel

	// Now overrides the clock used for updated_at and ledger expiry.
	Now func() time.Time
}

// New opens a GORM session.
func New(cfg *Config) (*Store, error) {
	dialector := postgres.Open(cfg.DSN)
	if cfg.Conn != nil {
		dialector = postgres.New(postgres.Config{Conn: cfg.Conn})
	}

	level := cfg.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	if cfg.Conn == nil {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}, nil
}

// Close releases the underlying sql.DB.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate runs GORM's AutoMigrate for both tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&userRecord{}, &usedResetTokenRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	err := s.db.WithContext(ctx).Create(fromUser(u)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.take(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.take(ctx, "id = ?", id)
}

func (s *Store) take(ctx context.Context, cond string, arg string) (*store.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).Where(cond, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return rec.toUser(), nil
}

// UpdatePasswordHash replaces the password hash of the user with email.
func (s *Store) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	res := s.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("email = ?", email).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    s.now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// MarkResetTokenUsed records a redeemed reset token.
func (s *Store) MarkResetTokenUsed(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	rec := &usedResetTokenRecord{TokenHash: tokenHash, ExpiresAt: expiresAt.UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to mark reset token: %w", err)
	}
	return nil
}

// IsResetTokenUsed reports whether tokenHash is recorded and unexpired.
func (s *Store) IsResetTokenUsed(ctx context.Context, tokenHash string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&usedResetTokenRecord{}).
		Where("token_hash = ? AND expires_at > ?", tokenHash, s.now().UTC()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reset token: %w", err)
	}
	return n > 0, nil
}

// DeleteExpiredResetTokens removes expired ledger entries.
func (s *Store) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now().UTC()).
		Delete(&usedResetTokenRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete reset tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ store.Store = (*Store)(nil)
