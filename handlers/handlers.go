// Package handlers exposes monopay.Auth over JSON HTTP.
package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/monopay/monopay"
	"github.com/monopay/monopay/ratelimit"
)

// Endpoint paths.
const (
	PathSignup        = "/api/signup"
	PathLogin         = "/api/login"
	PathRequestReset  = "/api/auth/request-reset"
	PathConfirmReset  = "/api/auth/confirm-reset"
	PathMe            = "/api/me"
	PathLogout        = "/api/logout"
	maxRequestBodyLen = 1 << 20
)

// Recorder receives one call per completed auth operation. The outcome is
// "success" or the lower-case error kind.
type Recorder interface {
	RecordAuth(operation, outcome string)
}

// Handler serves the auth endpoints.
type Handler struct {
	auth    *monopay.Auth
	log     zerolog.Logger
	metrics Recorder
	limiter ratelimit.Limiter
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.metrics = r }
}

// WithRateLimiter limits the unauthenticated endpoints per client IP.
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// New creates a Handler backed by auth.
func New(auth *monopay.Auth, opts ...Option) *Handler {
	h := &Handler{
		auth: auth,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With().Str("component", "handlers").Logger()
	return h
}

// Routes registers every endpoint on r. The caller is expected to have
// mounted the request gate in front, which protects /api/me and
// /api/logout.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(ratelimit.Middleware(h.limiter, ratelimit.Config{Logger: h.log}))
		}
		r.Post(PathSignup, h.Signup)
		r.Post(PathLogin, h.Login)
		r.Post(PathRequestReset, h.RequestReset)
		r.Post(PathConfirmReset, h.ConfirmReset)
	})

	r.Get(PathMe, h.Me)
	r.Post(PathLogout, h.Logout)
}

func (h *Handler) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = monopay.KindOf(err).String()
	}
	h.metrics.RecordAuth(operation, outcome)
}
