package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/monopay/monopay/token"
)

// Decision is the outcome of gating one request.
type Decision int

const (
	DecisionStatic Decision = iota + 1
	DecisionPublic
	DecisionAllowed
	DecisionMissingToken
	DecisionInvalidToken
)

func (d Decision) String() string {
	switch d {
	case DecisionStatic:
		return "static"
	case DecisionPublic:
		return "public"
	case DecisionAllowed:
		return "allowed"
	case DecisionMissingToken:
		return "missing_token"
	case DecisionInvalidToken:
		return "invalid_token"
	default:
		return "unknown"
	}
}

// Passes reports whether the request continues to the next handler.
func (d Decision) Passes() bool {
	return d == DecisionStatic || d == DecisionPublic || d == DecisionAllowed
}

// Response bodies for rejected API requests.
const (
	MessageUnauthorized = "Unauthorized"
	MessageInvalidToken = "Invalid or expired token"
)

// Verifier validates a session token.
type Verifier interface {
	Verify(raw string) (*token.SessionClaims, error)
}

// ErrVerifierRequired is returned by NewGate without a Verifier.
var ErrVerifierRequired = errors.New("middleware: verifier is required")

// Config holds gate configuration.
type Config struct {
	// Verifier checks session tokens. Required.
	Verifier Verifier

	// Routes defaults to DefaultRoutes.
	Routes *Routes

	// CookieName defaults to "auth_token".
	CookieName string

	// Extractor reads the session token from net/http requests. Defaults
	// to the Authorization bearer token, then the session cookie.
	Extractor TokenExtractor

	// OnDecision observes every gated request.
	OnDecision func(d Decision, api bool)

	Logger zerolog.Logger
}

// Gate classifies requests and checks session tokens. The framework
// adapters share one Gate so they decide identically.
type Gate struct {
	verifier   Verifier
	routes     Routes
	cookieName string
	extract    TokenExtractor
	onDecision func(Decision, bool)
	log        zerolog.Logger
}

// NewGate builds a Gate from cfg.
func NewGate(cfg Config) (*Gate, error) {
	if cfg.Verifier == nil {
		return nil, ErrVerifierRequired
	}
	routes := DefaultRoutes()
	if cfg.Routes != nil {
		routes = *cfg.Routes
	}
	cookie := cfg.CookieName
	if cookie == "" {
		cookie = "auth_token"
	}
	extract := cfg.Extractor
	if extract == nil {
		extract = ChainExtractors(ExtractFromHeader("Authorization"), ExtractFromCookie(cookie))
	}
	return &Gate{
		verifier:   cfg.Verifier,
		routes:     routes,
		cookieName: cookie,
		extract:    extract,
		onDecision: cfg.OnDecision,
		log:        cfg.Logger.With().Str("component", "gate").Logger(),
	}, nil
}

// CookieName returns the session cookie the gate reads.
func (g *Gate) CookieName() string {
	return g.cookieName
}

// Request is the framework-neutral view of an incoming request.
type Request struct {
	// Path is the raw request path. It is cleaned before matching.
	Path     string
	RawQuery string

	// Token is the session token, empty when the client sent none.
	Token string
}

// RequestFrom removes client-supplied identity headers from API requests
// and builds the Request for r using the gate's extractor.
func (g *Gate) RequestFrom(r *http.Request) Request {
	if IsAPI(CleanPath(r.URL.Path)) {
		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderUserEmail)
	}
	return Request{
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Token:    g.extract(r),
	}
}

// Result tells an adapter how to answer.
type Result struct {
	Decision Decision
	API      bool

	// Claims is set when Decision is DecisionAllowed.
	Claims *token.SessionClaims

	// Status and Message are set for rejected API requests.
	Status  int
	Message string

	// Redirect is set for rejected page requests.
	Redirect string
}

// Evaluate decides what to do with req.
func (g *Gate) Evaluate(req Request) Result {
	res := g.evaluate(req)
	if g.onDecision != nil {
		g.onDecision(res.Decision, res.API)
	}
	return res
}

func (g *Gate) evaluate(req Request) Result {
	req.Path = CleanPath(req.Path)
	api := IsAPI(req.Path)

	if g.routes.IsStatic(req.Path) {
		return Result{Decision: DecisionStatic, API: api}
	}
	if g.routes.IsPublic(req.Path) {
		return Result{Decision: DecisionPublic, API: api}
	}

	if req.Token == "" {
		return g.reject(req, api, DecisionMissingToken, MessageUnauthorized)
	}

	claims, err := g.verifier.Verify(req.Token)
	if err != nil {
		g.log.Debug().Err(err).Str("path", req.Path).Msg("session rejected")
		return g.reject(req, api, DecisionInvalidToken, MessageInvalidToken)
	}
	return Result{Decision: DecisionAllowed, API: api, Claims: claims}
}

func (g *Gate) reject(req Request, api bool, d Decision, msg string) Result {
	if api {
		return Result{Decision: d, API: true, Status: http.StatusUnauthorized, Message: msg}
	}
	return Result{Decision: d, Redirect: g.loginRedirect(req)}
}

// loginRedirect is LoginPath?redirect=<path+query>.
func (g *Gate) loginRedirect(req Request) string {
	target := req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}
	return g.routes.LoginPath + "?redirect=" + url.QueryEscape(target)
}

// Handler wraps next with the gate for net/http routers.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := g.Evaluate(g.RequestFrom(r))
		switch {
		case res.Decision == DecisionAllowed:
			if res.API {
				r.Header.Set(HeaderUserID, res.Claims.UserID)
				r.Header.Set(HeaderUserEmail, res.Claims.Email)
			}
			next.ServeHTTP(w, r.WithContext(SetClaims(r.Context(), res.Claims)))
		case res.Decision.Passes():
			next.ServeHTTP(w, r)
		case res.API:
			WriteJSONError(w, res.Status, res.Message)
		default:
			http.Redirect(w, r, res.Redirect, http.StatusTemporaryRedirect)
		}
	})
}

// WriteJSONError writes {"error": msg} with status.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
