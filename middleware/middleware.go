// Package middleware gates every request to the MonoPay app: static assets
// and public routes pass, everything else needs a valid session token.
package middleware

import (
	"context"

	"github.com/monopay/monopay/token"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing session claims.
const ClaimsKey contextKey = "monopay_claims"

// Identity headers injected on authorized API requests. Client-supplied
// values are always removed first.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
)

// SetClaims stores claims in the request context.
func SetClaims(ctx context.Context, claims *token.SessionClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims retrieves claims from the context.
func GetClaims(ctx context.Context) (*token.SessionClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*token.SessionClaims)
	return claims, ok && claims != nil
}

// GetUserID retrieves the session user ID from the context.
func GetUserID(ctx context.Context) string {
	if claims, ok := GetClaims(ctx); ok {
		return claims.UserID
	}
	return ""
}
