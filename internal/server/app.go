// Package server assembles the MonoPay HTTP server from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/monopay/monopay"
	"github.com/monopay/monopay/internal/config"
	"github.com/monopay/monopay/internal/metrics"
	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/notify"
	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/ratelimit"
	"github.com/monopay/monopay/store"
	gormstore "github.com/monopay/monopay/store/gorm"
	"github.com/monopay/monopay/store/memory"
	redisstore "github.com/monopay/monopay/store/redis"
	sqlstore "github.com/monopay/monopay/store/sql"
)

// ServiceName identifies the process in traces and logs.
const ServiceName = "monopay"

// App is a fully wired server.
type App struct {
	Auth    *monopay.Auth
	Metrics *metrics.Metrics
	Handler http.Handler

	log     zerolog.Logger
	closers []func() error
}

// Option customizes NewApp.
type Option func(*appOptions)

type appOptions struct {
	store    store.Store
	authOpts []monopay.Option
}

// WithStore bypasses STORE_DRIVER and uses s.
func WithStore(s store.Store) Option {
	return func(o *appOptions) { o.store = s }
}

// WithAuthOptions appends options to monopay.New, after the ones derived
// from the configuration.
func WithAuthOptions(opts ...monopay.Option) Option {
	return func(o *appOptions) { o.authOpts = append(o.authOpts, opts...) }
}

// NewApp opens the store and builds every component described by cfg.
func NewApp(ctx context.Context, cfg config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Metrics: metrics.New(),
		log:     log,
	}

	st := o.store
	if st == nil {
		var err error
		st, err = OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	authOpts := []monopay.Option{
		monopay.WithSecrets(cfg.JWTSecret, cfg.ResetTokenSecret),
		monopay.WithSessionTTL(cfg.SessionTTL),
		monopay.WithResetTokenTTL(cfg.ResetTokenTTL),
		monopay.WithSecureCookies(cfg.Production()),
		monopay.WithSingleUseResetTokens(cfg.SingleUseResetTokens),
		monopay.WithAutoMigrate(cfg.AutoMigrate),
		monopay.WithCleanupInterval(cfg.CleanupInterval),
		monopay.WithCleanupHook(app.Metrics.RecordCleanup),
		monopay.WithStore(st),
		monopay.WithPasswordHasher(NewHasher(cfg)),
		monopay.WithNotifier(NewNotifier(cfg, log, app.Metrics)),
		monopay.WithLogger(log),
	}

	if cfg.ResetAttemptLimit > 0 {
		limiter, closeFn, err := newLimiter(cfg, cfg.ResetAttemptLimit, cfg.ResetTokenTTL, "monopay:reset-attempts:")
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		app.closers = append(app.closers, closeFn)
		authOpts = append(authOpts, monopay.WithResetLimiter(limiter))
	}

	auth, err := monopay.New(append(authOpts, o.authOpts...)...)
	if err != nil {
		_ = st.Close()
		app.close()
		return nil, err
	}
	app.Auth = auth

	routerOpts := RouterOptions{
		Auth:            auth,
		Metrics:         app.Metrics,
		Logger:          log,
		AllowedOrigins:  cfg.AllowedOrigins,
		GlobalRateLimit: cfg.GlobalRateLimit,
		WebRoot:         cfg.WebRoot,
	}
	if cfg.GateRoutesFile != "" {
		routes, err := middleware.LoadRoutes(cfg.GateRoutesFile)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		routerOpts.Routes = &routes
	}
	if cfg.AuthRateLimit > 0 {
		limiter := ratelimit.NewMemoryLimiter(cfg.AuthRateLimit, time.Minute)
		app.closers = append(app.closers, limiter.Close)
		routerOpts.AuthLimiter = limiter
	}

	app.Handler, err = NewRouter(routerOpts)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// Close shuts down auth (and with it the store) and every owned resource.
func (a *App) Close() error {
	var errs []error
	if a.Auth != nil {
		errs = append(errs, a.Auth.Close())
	}
	errs = append(errs, a.close())
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore connects the backend selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		st, err = sqlstore.New(&sqlstore.Config{Dialect: sqlstore.PostgreSQL, DSN: cfg.DatabaseURL})
	case config.DriverMySQL:
		st, err = sqlstore.New(&sqlstore.Config{Dialect: sqlstore.MySQL, DSN: cfg.DatabaseURL})
	case config.DriverGorm:
		st, err = gormstore.New(&gormstore.Config{DSN: cfg.DatabaseURL})
	case config.DriverRedis:
		st, err = redisstore.New(&redisstore.Config{URL: cfg.RedisURL})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := st.Ping(pingCtx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.StoreDriver, err)
	}
	return st, nil
}

// NewHasher returns a MultiHasher whose primary follows PASSWORD_HASHER.
// Hashes from the other algorithm still verify.
func NewHasher(cfg config.Config) password.Hasher {
	if cfg.PasswordHasher == "argon2" {
		return password.NewMultiHasher(password.NewArgon2Hasher(nil))
	}
	return password.NewMultiHasher(password.NewBcryptHasher(&password.BcryptConfig{Cost: cfg.BcryptCost}))
}

// NewNotifier builds the provider chain: SendGrid, then SMTP, then the log
// fallback. Providers without credentials are left out.
func NewNotifier(cfg config.Config, log zerolog.Logger, m *metrics.Metrics) notify.Notifier {
	var providers []notify.Notifier

	if key := cfg.SendGridAPIKeyValue(); key != "" {
		sg, err := notify.NewSendGridNotifier(notify.SendGridConfig{
			APIKey: key,
			From:   cfg.SendGridSender(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("sendgrid disabled")
		} else {
			providers = append(providers, sg)
		}
	}

	if cfg.EmailID != "" || cfg.EmailPassword != "" {
		smtp, err := notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.EmailID,
			Password: cfg.EmailPassword,
			From:     cfg.SMTPSender(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("smtp disabled")
		} else {
			providers = append(providers, smtp)
		}
	}

	providers = append(providers, notify.NewLogNotifier(log))

	chainOpts := []notify.ChainOption{notify.WithLogger(log)}
	if m != nil {
		chainOpts = append(chainOpts, notify.WithResultFunc(m.RecordNotification))
	}
	return notify.NewChain(providers, chainOpts...)
}

// newLimiter returns a Redis limiter when REDIS_URL is set, so replicas
// share counters, and an in-process one otherwise.
func newLimiter(cfg config.Config, rate int, window time.Duration, prefix string) (ratelimit.Limiter, func() error, error) {
	if cfg.RedisURL == "" {
		l := ratelimit.NewMemoryLimiter(rate, window)
		return l, l.Close, nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	l := ratelimit.NewRedisLimiter(&ratelimit.RedisConfig{
		Client:    client,
		KeyPrefix: prefix,
		Rate:      rate,
		Window:    window,
	})
	return l, client.Close, nil
}
