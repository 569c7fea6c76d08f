package password

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/monopay/monopay/internal/crypto"
)

const argon2Prefix = "$argon2id$"

// Argon2Config holds the Argon2id parameters.
type Argon2Config struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the OWASP-recommended Argon2id parameters.
func DefaultArgon2Config() *Argon2Config {
	return &Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Hasher implements Hasher using Argon2id and PHC-encoded hashes:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type Argon2Hasher struct {
	config *Argon2Config
}

// NewArgon2Hasher creates an Argon2id hasher. A nil config selects
// DefaultArgon2Config.
func NewArgon2Hasher(config *Argon2Config) *Argon2Hasher {
	if config == nil {
		config = DefaultArgon2Config()
	}
	return &Argon2Hasher{config: config}
}

// Hash derives a PHC-encoded Argon2id hash with a fresh random salt.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt, err := crypto.GenerateRandomBytes(int(h.config.SaltLength))
	if err != nil {
		return "", err
	}
	key := h.derive(password, salt, h.config)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.config.Memory, h.config.Iterations, h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters embedded in encoded.
func (h *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := parseArgon2(encoded)
	if err != nil {
		return false, err
	}
	candidate := h.derive(password, salt, params)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// NeedsRehash reports whether encoded differs from the current parameters.
func (h *Argon2Hasher) NeedsRehash(encoded string) bool {
	params, _, _, err := parseArgon2(encoded)
	if err != nil {
		return true
	}
	return *params != Argon2Config{
		Memory:      h.config.Memory,
		Iterations:  h.config.Iterations,
		Parallelism: h.config.Parallelism,
		SaltLength:  params.SaltLength,
		KeyLength:   h.config.KeyLength,
	}
}

func (h *Argon2Hasher) derive(password string, salt []byte, c *Argon2Config) []byte {
	return argon2.IDKey([]byte(password), salt, c.Iterations, c.Memory, c.Parallelism, c.KeyLength)
}

func parseArgon2(encoded string) (*Argon2Config, []byte, []byte, error) {
	if !strings.HasPrefix(encoded, argon2Prefix) {
		return nil, nil, nil, ErrUnsupportedHash
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("%w: malformed argon2id hash", ErrUnsupportedHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: argon2 version %d", ErrUnsupportedHash, version)
	}

	params := &Argon2Config{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: salt: %v", ErrUnsupportedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: key: %v", ErrUnsupportedHash, err)
	}
	params.SaltLength = uint32(len(salt)) //nolint:gosec // bounded by decoded input
	params.KeyLength = uint32(len(key))   //nolint:gosec // bounded by decoded input

	return params, salt, key, nil
}

var _ Hasher = (*Argon2Hasher)(nil)
