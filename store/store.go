// Package store defines the persistence contracts for MonoPay accounts.
package store

import (
	"context"
	"time"
)

// UserStore persists user accounts. All methods must be safe for
// concurrent use.
type UserStore interface {
	// Close releases any resources held by the store.
	Close() error

	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error

	// CreateUser inserts a new user. It returns ErrUserExists when the
	// email is already taken, including when a concurrent insert wins.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail looks up a user by normalized email.
	// Returns nil, nil if no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID looks up a user by ID.
	// Returns nil, nil if no user has that ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// UpdatePasswordHash replaces the password hash of the user with the
	// given email. Returns ErrUserNotFound if there is no such user.
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}

// ResetLedger records password reset tokens that have already been
// redeemed. It is only consulted when single-use reset tokens are enabled.
type ResetLedger interface {
	// MarkResetTokenUsed records the hash of a redeemed token. The entry
	// may be dropped after expiresAt.
	MarkResetTokenUsed(ctx context.Context, tokenHash string, expiresAt time.Time) error

	// IsResetTokenUsed reports whether the token hash has been recorded
	// and has not yet expired.
	IsResetTokenUsed(ctx context.Context, tokenHash string) (bool, error)

	// DeleteExpiredResetTokens removes ledger entries whose token has
	// expired. Returns the number of entries deleted.
	DeleteExpiredResetTokens(ctx context.Context) (int64, error)
}

// Store is implemented by every backend in this module.
type Store interface {
	UserStore
	ResetLedger
}
