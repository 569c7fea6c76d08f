package token

import "github.com/golang-jwt/jwt/v5"

// SessionClaims identify a signed-in user.
type SessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionCodec mints and verifies session tokens.
type SessionCodec struct {
	s *signer
}

// NewSessionCodec returns a SessionCodec for cfg.
func NewSessionCodec(cfg Config) (*SessionCodec, error) {
	s, err := newSigner(cfg)
	if err != nil {
		return nil, err
	}
	return &SessionCodec{s: s}, nil
}

// Issue signs a session token for the user.
func (c *SessionCodec) Issue(userID, email string) (string, error) {
	rc, err := c.s.registered(userID)
	if err != nil {
		return "", err
	}
	return c.s.sign(&SessionClaims{UserID: userID, Email: email, RegisteredClaims: rc})
}

// Verify checks the signature, algorithm and expiry of raw. Every failure
// wraps ErrInvalid.
func (c *SessionCodec) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := c.s.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
