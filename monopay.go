// Package monopay implements MonoPay account authentication: signup,
// login and password reset by one-time code, with stateless session
// tokens.
//
// Basic usage:
//
//	auth, err := monopay.New(
//	    monopay.WithSecrets(sessionSecret, resetSecret),
//	    monopay.WithStore(memory.New()),
//	)
//	session, err := auth.Login(ctx, monopay.LoginInput{Email: e, Password: p})
//
// Transport is in the handlers package; request gating is in middleware.
package monopay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/monopay/monopay/cleanup"
	"github.com/monopay/monopay/internal/crypto"
	"github.com/monopay/monopay/notify"
	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/store"
	"github.com/monopay/monopay/token"
)

// Auth is the main entry point for monopay functionality.
type Auth struct {
	config   Config
	store    store.Store
	hasher   password.Hasher
	notifier notify.Notifier
	sessions *token.SessionCodec
	resets   *token.ResetCodec
	log      zerolog.Logger
	now      func() time.Time

	// dummyHash is verified against when a login email is unknown, so a
	// miss costs the same as a wrong password.
	dummyHash string

	cleanup *cleanup.Worker

	mu     sync.Mutex
	closed bool
}

// New creates a new Auth instance with the given options.
// At minimum, WithSecrets and WithStore must be provided.
func New(opts ...Option) (*Auth, error) {
	cfg := NewConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Hasher == nil {
		cfg.Hasher = password.NewMultiHasher(nil)
	}
	log := cfg.Logger.With().Str("component", "auth").Logger()
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewLogNotifier(cfg.Logger)
	}

	sessions, err := token.NewSessionCodec(token.Config{
		Secret:        cfg.SessionSecret,
		TTL:           cfg.SessionTTL,
		SigningMethod: string(cfg.SigningMethod),
		Leeway:        cfg.Leeway,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: session codec: %w", ErrConfigInvalid, err)
	}
	resets, err := token.NewResetCodec(token.Config{
		Secret:        cfg.ResetSecret,
		TTL:           cfg.ResetTokenTTL,
		SigningMethod: string(cfg.SigningMethod),
		Leeway:        cfg.Leeway,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reset codec: %w", ErrConfigInvalid, err)
	}

	if cfg.AutoMigrate {
		if err := cfg.Store.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	filler, err := crypto.GenerateRandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy password: %w", err)
	}
	dummy, err := cfg.Hasher.Hash(filler)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy password: %w", err)
	}

	a := &Auth{
		config:    *cfg,
		store:     cfg.Store,
		hasher:    cfg.Hasher,
		notifier:  cfg.Notifier,
		sessions:  sessions,
		resets:    resets,
		log:       log,
		now:       cfg.Now,
		dummyHash: dummy,
	}

	if cfg.SingleUseResetTokens && cfg.CleanupInterval > 0 {
		a.cleanup = cleanup.NewWorker(cleanup.Config{
			Tasks:    []cleanup.Task{cleanup.ResetLedgerTask(cfg.Store)},
			Interval: cfg.CleanupInterval,
			Logger:   cfg.Logger,
			OnResult: cfg.OnCleanup,
		})
		a.cleanup.Start()
	}

	return a, nil
}

// Config returns a copy of the configuration.
func (a *Auth) Config() Config {
	return a.config
}

// Store returns the underlying store.
func (a *Auth) Store() store.Store {
	return a.store
}

// Sessions returns the session codec, for wiring the request gate.
func (a *Auth) Sessions() *token.SessionCodec {
	return a.sessions
}

// VerifySession validates a session token. Any failure wraps token.ErrInvalid.
func (a *Auth) VerifySession(raw string) (*token.SessionClaims, error) {
	return a.sessions.Verify(raw)
}

// Ping verifies the store connection is alive.
func (a *Auth) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Close releases all resources and stops background workers.
// After Close is called, the Auth instance should not be used.
func (a *Auth) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if a.config.ResetLimiter != nil {
		if err := a.config.ResetLimiter.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing reset limiter")
		}
	}
	return a.store.Close()
}

// Session is the result of a successful signup or login.
type Session struct {
	User      *store.User
	Token     string
	ExpiresAt time.Time
}

func (a *Auth) issueSession(user *store.User) (*Session, error) {
	raw, err := a.sessions.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:      user,
		Token:     raw,
		ExpiresAt: a.now().Add(a.config.SessionTTL),
	}, nil
}
