// Package crypto provides cryptographically secure random values.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
)

// ErrInvalidRange is returned when an integer range is empty.
var ErrInvalidRange = errors.New("crypto: invalid range")

// GenerateRandomBytes generates n cryptographically secure random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateRandomHex generates a random hex string of the specified byte length.
// The returned string will be 2*byteLength characters.
func GenerateRandomHex(byteLength int) (string, error) {
	b, err := GenerateRandomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateID generates a random identifier suitable for use as a JTI.
// Returns a 32-character hex string (16 bytes of entropy).
func GenerateID() (string, error) {
	return GenerateRandomHex(16)
}

// RandomInt returns a uniformly distributed integer in [lo, hi].
func RandomInt(lo, hi int64) (int64, error) {
	if hi < lo {
		return 0, ErrInvalidRange
	}
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return 0, err
	}
	return lo + n.Int64(), nil
}
