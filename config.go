package monopay

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/monopay/monopay/notify"
	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/ratelimit"
	"github.com/monopay/monopay/store"
)

// SigningMethod represents the JWT signing algorithm.
type SigningMethod string

const (
	// SigningMethodHS256 uses HMAC-SHA256 for signing.
	SigningMethodHS256 SigningMethod = "HS256"

	// SigningMethodHS384 uses HMAC-SHA384 for signing.
	SigningMethodHS384 SigningMethod = "HS384"

	// SigningMethodHS512 uses HMAC-SHA512 for signing.
	SigningMethodHS512 SigningMethod = "HS512"
)

// Default configuration values.
const (
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultResetTokenTTL   = 15 * time.Minute
	DefaultCleanupInterval = 1 * time.Hour

	// MinSecretLength is the minimum required length for either secret.
	MinSecretLength = 32

	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "auth_token"

	// DashboardPath is the redirect hint returned after signup and login.
	DashboardPath = "/dashboard"
)

// Config holds all configuration for the Auth instance. New copies it, so
// later changes to the options' inputs do not affect a running Auth.
type Config struct {
	// SessionSecret signs session tokens.
	SessionSecret string

	// ResetSecret signs password reset tokens. It must differ from
	// SessionSecret.
	ResetSecret string

	SessionTTL    time.Duration
	ResetTokenTTL time.Duration

	// SigningMethod applies to both token kinds.
	SigningMethod SigningMethod

	// Leeway tolerates clock drift when checking token expiry.
	Leeway time.Duration

	// SecureCookies sets the Secure flag on the session cookie.
	SecureCookies bool

	// SingleUseResetTokens rejects a reset token once it has been used to
	// change a password.
	SingleUseResetTokens bool

	// AutoMigrate runs Store.Migrate in New.
	AutoMigrate bool

	// CleanupInterval is how often expired ledger entries are purged when
	// SingleUseResetTokens is set. Zero disables the background worker.
	CleanupInterval time.Duration

	// OnCleanup is called after each purge.
	OnCleanup func(task string, deleted int64, err error)

	Store    store.Store
	Hasher   password.Hasher
	Notifier notify.Notifier

	// ResetLimiter, when set, caps confirm-reset attempts per email.
	ResetLimiter ratelimit.Limiter

	Logger zerolog.Logger

	// Now overrides the clock.
	Now func() time.Time
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SessionTTL:      DefaultSessionTTL,
		ResetTokenTTL:   DefaultResetTokenTTL,
		SigningMethod:   SigningMethodHS256,
		CleanupInterval: DefaultCleanupInterval,
		Logger:          zerolog.Nop(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.SigningMethod {
	case SigningMethodHS256, SigningMethodHS384, SigningMethodHS512:
	default:
		return fmt.Errorf("%w: unsupported signing method: %s", ErrConfigInvalid, c.SigningMethod)
	}

	if err := checkSecret("session secret", c.SessionSecret); err != nil {
		return err
	}
	if err := checkSecret("reset secret", c.ResetSecret); err != nil {
		return err
	}
	if c.SessionSecret == c.ResetSecret {
		return fmt.Errorf("%w: session and reset secrets must differ", ErrConfigInvalid)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session TTL must be positive", ErrConfigInvalid)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("%w: reset token TTL must be positive", ErrConfigInvalid)
	}
	if c.Leeway < 0 {
		return fmt.Errorf("%w: leeway cannot be negative", ErrConfigInvalid)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: cleanup interval cannot be negative", ErrConfigInvalid)
	}

	if c.Store == nil {
		return ErrStoreRequired
	}
	return nil
}

func checkSecret(name, secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: %s is required", ErrConfigInvalid, name)
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrConfigInvalid, name, MinSecretLength)
	}
	return nil
}
