package monopay

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/monopay/monopay/notify"
	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/ratelimit"
	"github.com/monopay/monopay/store"
)

// Option is a function that modifies the configuration.
type Option func(*Config)

// WithSecrets sets the session and reset token secrets.
// Both must be at least 32 characters long and must differ.
func WithSecrets(session, reset string) Option {
	return func(c *Config) {
		c.SessionSecret = session
		c.ResetSecret = reset
	}
}

// WithSessionTTL sets the session token and cookie lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.SessionTTL = ttl
	}
}

// WithResetTokenTTL sets the reset token lifetime.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.ResetTokenTTL = ttl
	}
}

// WithSigningMethod sets the JWT signing algorithm.
func WithSigningMethod(method SigningMethod) Option {
	return func(c *Config) {
		c.SigningMethod = method
	}
}

// WithLeeway sets the clock drift tolerated on token expiry.
func WithLeeway(d time.Duration) Option {
	return func(c *Config) {
		c.Leeway = d
	}
}

// WithSecureCookies sets the Secure flag on session cookies.
func WithSecureCookies(enabled bool) Option {
	return func(c *Config) {
		c.SecureCookies = enabled
	}
}

// WithSingleUseResetTokens records redeemed reset tokens and rejects
// them afterwards.
func WithSingleUseResetTokens(enabled bool) Option {
	return func(c *Config) {
		c.SingleUseResetTokens = enabled
	}
}

// WithAutoMigrate enables or disables automatic schema migration.
func WithAutoMigrate(enabled bool) Option {
	return func(c *Config) {
		c.AutoMigrate = enabled
	}
}

// WithCleanupInterval sets how often expired ledger entries are purged.
// Set to 0 to disable background cleanup.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.CleanupInterval = interval
	}
}

// WithCleanupHook observes every ledger purge.
func WithCleanupHook(fn func(task string, deleted int64, err error)) Option {
	return func(c *Config) {
		c.OnCleanup = fn
	}
}

// WithStore sets the account store. This is a required option.
func WithStore(s store.Store) Option {
	return func(c *Config) {
		c.Store = s
	}
}

// WithPasswordHasher sets the password hashing algorithm.
func WithPasswordHasher(h password.Hasher) Option {
	return func(c *Config) {
		c.Hasher = h
	}
}

// WithNotifier sets where reset codes are delivered.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Config) {
		c.Notifier = n
	}
}

// WithResetLimiter caps confirm-reset attempts per email. The counter is
// cleared whenever a new code is requested.
func WithResetLimiter(l ratelimit.Limiter) Option {
	return func(c *Config) {
		c.ResetLimiter = l
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithClock overrides the clock used for tokens and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}
