// Package token issues and verifies the signed, time-boxed tokens used for
// sessions and password reset.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/monopay/monopay/internal/crypto"
)

// Config configures a codec.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string

	// TTL is the token lifetime.
	TTL time.Duration

	// SigningMethod is HS256 (default), HS384 or HS512.
	SigningMethod string

	// Leeway tolerates clock drift when checking exp.
	Leeway time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// signer holds the parts shared by the session and reset codecs.
type signer struct {
	secret []byte
	ttl    time.Duration
	method jwt.SigningMethod
	parser *jwt.Parser
	now    func() time.Time
}

func newSigner(cfg Config) (*signer, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	if cfg.TTL <= 0 {
		return nil, ErrNonPositiveTTL
	}

	var method jwt.SigningMethod
	switch cfg.SigningMethod {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, ErrUnsupportedMethod
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &signer{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		method: method,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithLeeway(cfg.Leeway),
			jwt.WithTimeFunc(now),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// registered fills the standard claims for a token issued now.
func (s *signer) registered(subject string) (jwt.RegisteredClaims, error) {
	jti, err := crypto.GenerateID()
	if err != nil {
		return jwt.RegisteredClaims{}, err
	}
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}, nil
}

func (s *signer) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

func (s *signer) parse(raw string, claims jwt.Claims) error {
	if raw == "" {
		return ErrTokenMalformed
	}
	tok, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return mapJWTError(err)
	}
	if !tok.Valid {
		return ErrTokenMalformed
	}
	return nil
}

// mapJWTError folds library errors into the package's ErrInvalid family.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
