package middleware

import (
	"net/http"
	"strings"
)

// TokenExtractor extracts a token from an HTTP request.
type TokenExtractor func(r *http.Request) string

// BearerToken returns the token of an "Authorization: Bearer <t>" value.
// The scheme is case-insensitive.
func BearerToken(authorization string) string {
	const prefix = "bearer "
	if len(authorization) <= len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}

// ExtractFromHeader creates a TokenExtractor that reads a Bearer token.
func ExtractFromHeader(header string) TokenExtractor {
	return func(r *http.Request) string {
		return BearerToken(r.Header.Get(header))
	}
}

// ExtractFromCookie creates a TokenExtractor that extracts from a cookie.
func ExtractFromCookie(name string) TokenExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// ChainExtractors chains multiple extractors, returning the first non-empty result.
func ChainExtractors(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) string {
		for _, extractor := range extractors {
			if token := extractor(r); token != "" {
				return token
			}
		}
		return ""
	}
}
