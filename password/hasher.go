// Package password provides one-way salted password hashing.
//
// Every hash produced here is self-describing: the algorithm and its
// parameters are encoded in the hash string, so no salt or cost is stored
// alongside it.
package password

import "errors"

var (
	// ErrPasswordTooLong is returned when a password exceeds what the
	// algorithm can hash without truncation.
	ErrPasswordTooLong = errors.New("password is too long")

	// ErrUnsupportedHash is returned when a hash is not in a known format.
	ErrUnsupportedHash = errors.New("unsupported password hash format")
)

// Hasher defines the interface for password hashing algorithms.
type Hasher interface {
	// Hash creates a hash from a password.
	Hash(password string) (string, error)

	// Verify checks if a password matches a hash. A mismatch is reported
	// as false with a nil error; an error means the hash itself is unusable.
	Verify(password, hash string) (bool, error)

	// NeedsRehash reports whether the hash was created with parameters
	// other than the hasher's current ones.
	NeedsRehash(hash string) bool
}
