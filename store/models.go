package store

import "time"

// User is a MonoPay account.
type User struct {
	// ID is a UUID assigned at signup.
	ID string `db:"id" json:"id"`

	// Email is trimmed and lower-cased before it reaches the store.
	Email string `db:"email" json:"email"`

	FullName string `db:"full_name" json:"full_name"`

	// PasswordHash is a self-describing bcrypt or argon2id hash.
	PasswordHash string `db:"password_hash" json:"-"`

	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Clone returns a copy of u, so callers never share a stored value.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UsedResetToken is a redeemed password reset token.
type UsedResetToken struct {
	// TokenHash is the SHA256 of the raw token. The raw token is never stored.
	TokenHash string `db:"token_hash" json:"token_hash"`

	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// IsExpired reports whether the entry can be purged at now.
func (t *UsedResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
