package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/monopay/monopay"
	"github.com/monopay/monopay/handlers"
	"github.com/monopay/monopay/internal/metrics"
	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/ratelimit"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Auth    *monopay.Auth
	Metrics *metrics.Metrics
	Logger  zerolog.Logger

	// Routes overrides the gate's route table.
	Routes *middleware.Routes

	AllowedOrigins []string

	// GlobalRateLimit is requests per minute per client IP. Zero disables it.
	GlobalRateLimit int

	// AuthLimiter limits the public auth endpoints.
	AuthLimiter ratelimit.Limiter

	// WebRoot, when set, is served for every gated non-API path.
	WebRoot string
}

// NewRouter builds the HTTP handler. Health, readiness and metrics sit
// outside the gate; everything else goes through it.
func NewRouter(opts RouterOptions) (http.Handler, error) {
	log := opts.Logger
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	gate, err := middleware.NewGate(middleware.Config{
		Verifier:   opts.Auth.Sessions(),
		Routes:     opts.Routes,
		CookieName: monopay.SessionCookieName,
		Logger:     log,
		OnDecision: func(d middleware.Decision, api bool) {
			m.RecordGate(d.String(), api)
		},
	})
	if err != nil {
		return nil, err
	}

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	if opts.GlobalRateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.GlobalRateLimit, time.Minute))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := opts.Auth.Ping(req.Context()); err != nil {
			hlog.FromRequest(req).Warn().Err(err).Msg("readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	hopts := []handlers.Option{
		handlers.WithLogger(log),
		handlers.WithRecorder(m),
	}
	if opts.AuthLimiter != nil {
		hopts = append(hopts, handlers.WithRateLimiter(opts.AuthLimiter))
	}
	h := handlers.New(opts.Auth, hopts...)

	r.Group(func(r chi.Router) {
		r.Use(gate.Handler)
		h.Routes(r)
		r.Handle("/*", pages(opts.WebRoot))
	})

	return otelhttp.NewHandler(r, ServiceName), nil
}

// pages serves the web app for paths the gate let through. API paths that
// match no endpoint get a JSON 404.
func pages(root string) http.Handler {
	var files http.Handler
	if root != "" {
		files = http.FileServer(http.Dir(root))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.IsAPI(r.URL.Path) || files == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		files.ServeHTTP(w, r)
	})
}
