package token

import (
	"errors"
	"fmt"
)

// ErrInvalid is the root of every verification failure. Callers that only
// need to know whether a token is usable should test errors.Is(err, ErrInvalid).
var ErrInvalid = errors.New("invalid token")

// Verification failures, each wrapping ErrInvalid.
var (
	ErrTokenExpired     = fmt.Errorf("%w: expired", ErrInvalid)
	ErrTokenNotYetValid = fmt.Errorf("%w: not yet valid", ErrInvalid)
	ErrTokenMalformed   = fmt.Errorf("%w: malformed", ErrInvalid)
	ErrTokenSignature   = fmt.Errorf("%w: signature", ErrInvalid)

	// ErrTokenMismatch is returned by ResetCodec.Check when the presented
	// email or OTP differs from the embedded one.
	ErrTokenMismatch = fmt.Errorf("%w: claims mismatch", ErrInvalid)
)

// Configuration errors.
var (
	ErrEmptySecret       = errors.New("token secret is required")
	ErrUnsupportedMethod = errors.New("unsupported signing method")
	ErrNonPositiveTTL    = errors.New("token TTL must be positive")
)
