// Package config loads the MonoPay server configuration from the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverGorm     = "gorm"
	DriverRedis    = "redis"
)

// Config holds runtime configuration for the MonoPay server.
type Config struct {
	Addr   string `env:"ADDR,default=:8080"`
	AppEnv string `env:"APP_ENV,default=development"`

	JWTSecret        string        `env:"JWT_SECRET,required"`
	ResetTokenSecret string        `env:"RESET_TOKEN_SECRET,required"`
	SessionTTL       time.Duration `env:"SESSION_TTL,default=168h"`
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL,default=15m"`

	StoreDriver string `env:"STORE_DRIVER,default=memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`

	PasswordHasher string `env:"PASSWORD_HASHER,default=bcrypt"`
	BcryptCost     int    `env:"BCRYPT_COST,default=10"`

	SingleUseResetTokens bool          `env:"SINGLE_USE_RESET_TOKENS,default=false"`
	ResetAttemptLimit    int           `env:"RESET_ATTEMPT_LIMIT,default=0"`
	AuthRateLimit        int           `env:"AUTH_RATE_LIMIT,default=20"`
	GlobalRateLimit      int           `env:"GLOBAL_RATE_LIMIT,default=100"`
	CleanupInterval      time.Duration `env:"CLEANUP_INTERVAL,default=1h"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	SendGridKey    string `env:"SENDGRID_KEY"`
	SendGridFrom   string `env:"SENDGRID_FROM"`
	SMTPFrom       string `env:"SMTP_FROM"`
	SMTPUser       string `env:"SMTP_USER"`
	EmailID        string `env:"EMAIL_ID"`
	EmailPassword  string `env:"EMAIL_PASSWORD"`
	SMTPHost       string `env:"SMTP_HOST,default=smtp.gmail.com"`
	SMTPPort       int    `env:"SMTP_PORT,default=587"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	GateRoutesFile string   `env:"GATE_ROUTES_FILE"`
	WebRoot        string   `env:"WEB_ROOT"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	LogFormat    string `env:"LOG_FORMAT,default=console"`
}

// Load reads .env files (when present) and then the environment.
func Load(ctx context.Context, envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith builds a Config from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that envconfig cannot express. Secret strength
// is checked by monopay.New.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL, DriverGorm:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", c.StoreDriver))
		}
	case DriverRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for STORE_DRIVER=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.PasswordHasher {
	case "bcrypt", "argon2":
	default:
		errs = append(errs, fmt.Errorf("unknown PASSWORD_HASHER %q", c.PasswordHasher))
	}

	if c.ResetAttemptLimit < 0 {
		errs = append(errs, errors.New("RESET_ATTEMPT_LIMIT must not be negative"))
	}
	if c.AuthRateLimit < 0 || c.GlobalRateLimit < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}

	return errors.Join(errs...)
}

// Production reports whether APP_ENV is production.
func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// SendGridAPIKeyValue returns the first non-empty of SENDGRID_API_KEY and
// SENDGRID_KEY.
func (c Config) SendGridAPIKeyValue() string {
	return firstNonEmpty(c.SendGridAPIKey, c.SendGridKey)
}

// SendGridSender returns the SendGrid from-address, falling back through
// SMTP_FROM, SMTP_USER and EMAIL_ID.
func (c Config) SendGridSender() string {
	return firstNonEmpty(c.SendGridFrom, c.SMTPFrom, c.SMTPUser, c.EmailID)
}

// SMTPSender returns the SMTP from-address.
func (c Config) SMTPSender() string {
	return firstNonEmpty(c.SMTPFrom, c.EmailID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
