// Package chi mounts the request gate on a Chi router. Chi uses standard
// net/http middleware, so this package is a thin wrapper.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/token"
)

// Gate returns the gate as Chi middleware.
func Gate(g *middleware.Gate) func(http.Handler) http.Handler {
	return g.Handler
}

// Use installs the gate on every route of r.
func Use(r chi.Router, g *middleware.Gate) {
	r.Use(g.Handler)
}

// Claims retrieves session claims from the request context.
func Claims(r *http.Request) (*token.SessionClaims, bool) {
	return middleware.GetClaims(r.Context())
}

// UserID retrieves the session user ID from the request context.
func UserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
