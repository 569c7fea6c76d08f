// Package fiber provides the request gate as Fiber middleware.
package fiber

import (
	"github.com/gofiber/fiber/v2"

	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/token"
)

// ContextKey is the key used to store claims in Fiber's Locals.
const ContextKey = "claims"

// Gate returns g as a Fiber handler.
func Gate(g *middleware.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if middleware.IsAPI(middleware.CleanPath(path)) {
			c.Request().Header.Del(middleware.HeaderUserID)
			c.Request().Header.Del(middleware.HeaderUserEmail)
		}

		// Fiber is not net/http, so the gate's extractor cannot run here.
		raw := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Cookies(g.CookieName())
		}

		res := g.Evaluate(middleware.Request{
			Path:     path,
			RawQuery: string(c.Request().URI().QueryString()),
			Token:    raw,
		})

		switch {
		case res.Decision == middleware.DecisionAllowed:
			if res.API {
				c.Request().Header.Set(middleware.HeaderUserID, res.Claims.UserID)
				c.Request().Header.Set(middleware.HeaderUserEmail, res.Claims.Email)
			}
			c.Locals(ContextKey, res.Claims)
			c.SetUserContext(middleware.SetClaims(c.UserContext(), res.Claims))
			return c.Next()
		case res.Decision.Passes():
			return c.Next()
		case res.API:
			return c.Status(res.Status).JSON(fiber.Map{"error": res.Message})
		default:
			return c.Redirect(res.Redirect, fiber.StatusTemporaryRedirect)
		}
	}
}

// Claims retrieves session claims from Fiber's Locals.
func Claims(c *fiber.Ctx) (*token.SessionClaims, bool) {
	claims, ok := c.Locals(ContextKey).(*token.SessionClaims)
	return claims, ok && claims != nil
}

// UserID retrieves the session user ID from Fiber's Locals.
func UserID(c *fiber.Ctx) string {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return ""
}
