// Package gin provides the request gate as Gin middleware.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/token"
)

// ContextKey is the key used to store claims in Gin's context.
const ContextKey = "claims"

// Gate returns g as a Gin handler.
func Gate(g *middleware.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		res := g.Evaluate(g.RequestFrom(r))
		switch {
		case res.Decision == middleware.DecisionAllowed:
			if res.API {
				r.Header.Set(middleware.HeaderUserID, res.Claims.UserID)
				r.Header.Set(middleware.HeaderUserEmail, res.Claims.Email)
			}
			c.Set(ContextKey, res.Claims)
			c.Request = r.WithContext(middleware.SetClaims(r.Context(), res.Claims))
			c.Next()
		case res.Decision.Passes():
			c.Next()
		case res.API:
			c.AbortWithStatusJSON(res.Status, gin.H{"error": res.Message})
		default:
			c.Redirect(http.StatusTemporaryRedirect, res.Redirect)
			c.Abort()
		}
	}
}

// Claims retrieves session claims from the Gin context.
func Claims(c *gin.Context) (*token.SessionClaims, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.SessionClaims)
	return claims, ok
}

// UserID retrieves the session user ID from the Gin context.
func UserID(c *gin.Context) string {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return ""
}
