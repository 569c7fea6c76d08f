package password

import "strings"

// MultiHasher hashes new passwords with a primary algorithm while still
// verifying hashes produced by any algorithm it knows about. It lets a
// deployment switch PASSWORD_HASHER without locking existing users out.
type MultiHasher struct {
	primary Hasher
	bcrypt  *BcryptHasher
	argon2  *Argon2Hasher
}

// NewMultiHasher returns a MultiHasher that hashes with primary. The
// verifiers default to DefaultBcryptConfig and DefaultArgon2Config when the
// primary is not of that type.
func NewMultiHasher(primary Hasher) *MultiHasher {
	m := &MultiHasher{primary: primary}
	switch p := primary.(type) {
	case *BcryptHasher:
		m.bcrypt = p
	case *Argon2Hasher:
		m.argon2 = p
	}
	if m.bcrypt == nil {
		m.bcrypt = NewBcryptHasher(nil)
	}
	if m.argon2 == nil {
		m.argon2 = NewArgon2Hasher(nil)
	}
	if m.primary == nil {
		m.primary = m.bcrypt
	}
	return m
}

// Hash hashes with the primary hasher.
func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

// Verify dispatches on the hash prefix.
func (m *MultiHasher) Verify(password, hash string) (bool, error) {
	h, err := m.hasherFor(hash)
	if err != nil {
		return false, err
	}
	return h.Verify(password, hash)
}

// NeedsRehash reports true for hashes from a non-primary algorithm as well
// as for primary hashes with stale parameters.
func (m *MultiHasher) NeedsRehash(hash string) bool {
	h, err := m.hasherFor(hash)
	if err != nil || h != m.primary {
		return true
	}
	return h.NeedsRehash(hash)
}

func (m *MultiHasher) hasherFor(hash string) (Hasher, error) {
	switch {
	case isBcryptHash(hash):
		return m.bcrypt, nil
	case strings.HasPrefix(hash, argon2Prefix):
		return m.argon2, nil
	default:
		return nil, ErrUnsupportedHash
	}
}

var _ Hasher = (*MultiHasher)(nil)
