package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config configures Middleware.
type Config struct {
	// KeyFunc extracts the rate limit key from an HTTP request.
	// Defaults to GetClientIP.
	KeyFunc func(r *http.Request) string

	// OnLimited writes the response for a denied request.
	// Defaults to a JSON 429.
	OnLimited func(w http.ResponseWriter, r *http.Request)

	// SkipFunc exempts matching requests.
	SkipFunc func(r *http.Request) bool

	// Logger receives limiter backend errors.
	Logger zerolog.Logger
}

func defaultOnLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Too many requests. Please try again later."}` + "\n"))
}

// Middleware applies limiter to every request. Limiter errors fail open:
// the request proceeds and the error is logged.
func Middleware(limiter Limiter, cfg Config) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = GetClientIP
	}
	onLimited := cfg.OnLimited
	if onLimited == nil {
		onLimited = defaultOnLimited
	}
	log := cfg.Logger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SkipFunc != nil && cfg.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Error().Err(err).Str("key", key).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			if insp, ok := limiter.(Inspector); ok {
				setHeaders(w, insp, key, allowed)
			}
			if !allowed {
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(w http.ResponseWriter, insp Inspector, key string, allowed bool) {
	resetAt := insp.ResetAt(key)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(insp.Limit()))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(insp.Remaining(key)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	if !allowed {
		retry := int(time.Until(resetAt).Seconds())
		h.Set("Retry-After", strconv.Itoa(max(retry, 0)))
	}
}
