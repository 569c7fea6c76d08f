package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/monopay/monopay/internal/crypto"
	"github.com/monopay/monopay/internal/hash"
)

// OTP bounds. Codes are always four digits with no leading zero.
const (
	otpMin = 1000
	otpMax = 9999
)

// ResetClaims bind a one-time code to an account for a password reset.
type ResetClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	OTP    string `json:"otp"`
	jwt.RegisteredClaims
}

// ResetCodec mints and checks password reset tokens.
type ResetCodec struct {
	s *signer
}

// NewResetCodec returns a ResetCodec for cfg.
func NewResetCodec(cfg Config) (*ResetCodec, error) {
	s, err := newSigner(cfg)
	if err != nil {
		return nil, err
	}
	return &ResetCodec{s: s}, nil
}

// Issue signs a reset token embedding the user's identity and otp.
func (c *ResetCodec) Issue(userID, email, otp string) (string, error) {
	rc, err := c.s.registered(userID)
	if err != nil {
		return "", err
	}
	return c.s.sign(&ResetClaims{UserID: userID, Email: email, OTP: otp, RegisteredClaims: rc})
}

// Verify checks the signature, algorithm and expiry of raw.
func (c *ResetCodec) Verify(raw string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := c.s.parse(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Check verifies raw and requires the embedded email and OTP to equal the
// presented ones. A mismatch in either returns ErrTokenMismatch.
func (c *ResetCodec) Check(raw, email, otp string) (*ResetClaims, error) {
	claims, err := c.Verify(raw)
	if err != nil {
		return nil, err
	}
	emailOK := hash.Equal(claims.Email, email)
	otpOK := hash.Equal(claims.OTP, otp)
	if !emailOK || !otpOK {
		return nil, ErrTokenMismatch
	}
	return claims, nil
}

// GenerateOTP returns a uniformly random four-digit code in [1000, 9999].
func GenerateOTP() (string, error) {
	n, err := crypto.RandomInt(otpMin, otpMax)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}
