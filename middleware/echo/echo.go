// Package echo provides the request gate as Echo middleware.
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/token"
)

// ContextKey is the key used to store claims in Echo's context.
const ContextKey = "claims"

// Gate returns g as Echo middleware.
func Gate(g *middleware.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			res := g.Evaluate(g.RequestFrom(r))
			switch {
			case res.Decision == middleware.DecisionAllowed:
				if res.API {
					r.Header.Set(middleware.HeaderUserID, res.Claims.UserID)
					r.Header.Set(middleware.HeaderUserEmail, res.Claims.Email)
				}
				c.Set(ContextKey, res.Claims)
				c.SetRequest(r.WithContext(middleware.SetClaims(r.Context(), res.Claims)))
				return next(c)
			case res.Decision.Passes():
				return next(c)
			case res.API:
				return c.JSON(res.Status, map[string]string{"error": res.Message})
			default:
				return c.Redirect(http.StatusTemporaryRedirect, res.Redirect)
			}
		}
	}
}

// Claims retrieves session claims from the Echo context.
func Claims(c echo.Context) (*token.SessionClaims, bool) {
	claims, ok := c.Get(ContextKey).(*token.SessionClaims)
	return claims, ok && claims != nil
}

// UserID retrieves the session user ID from the Echo context.
func UserID(c echo.Context) string {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return ""
}
