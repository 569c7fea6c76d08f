package middleware

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Routes is the gate's route table.
type Routes struct {
	// StaticPrefixes pass untouched.
	StaticPrefixes []string `yaml:"static_prefixes"`

	// StaticExtensions pass untouched, without the dot.
	StaticExtensions []string `yaml:"static_extensions"`

	// PublicPages are exact non-API paths that need no session.
	PublicPages []string `yaml:"public_pages"`

	// PublicAPI prefixes match exactly or followed by "/".
	PublicAPI []string `yaml:"public_api"`

	// LoginPath is where unauthenticated page requests are sent.
	LoginPath string `yaml:"login_path"`
}

// DefaultRoutes returns the MonoPay route table.
func DefaultRoutes() Routes {
	return Routes{
		StaticPrefixes: []string{"/_next", "/favicon.ico", "/static"},
		StaticExtensions: []string{
			"js", "css", "json", "png", "jpg", "jpeg", "gif",
			"svg", "ico", "txt", "woff", "woff2", "webp",
		},
		PublicPages: []string{"/", "/login", "/signup"},
		PublicAPI: []string{
			"/api/login",
			"/api/signup",
			"/api/auth/request-reset",
			"/api/auth/confirm-reset",
		},
		LoginPath: "/login",
	}
}

// LoadRoutes reads a YAML route table. Keys left out keep their defaults.
func LoadRoutes(file string) (Routes, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Routes{}, fmt.Errorf("read routes file: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes a YAML route table over DefaultRoutes.
// Unknown keys are rejected.
func ParseRoutes(data []byte) (Routes, error) {
	rt := DefaultRoutes()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rt); err != nil {
		return Routes{}, fmt.Errorf("parse routes: %w", err)
	}

	if rt.LoginPath == "" || !strings.HasPrefix(rt.LoginPath, "/") {
		return Routes{}, fmt.Errorf("parse routes: login_path must be an absolute path, got %q", rt.LoginPath)
	}
	return rt, nil
}

// CleanPath resolves dot segments and repeated slashes in p, keeping a
// trailing slash. Routing decisions are made on the cleaned form because
// file servers and routers downstream resolve the path the same way.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	cleaned := path.Clean(p)
	if cleaned != "/" && strings.HasSuffix(p, "/") {
		cleaned += "/"
	}
	return cleaned
}

// IsAPI reports whether p is /api or below it.
func IsAPI(p string) bool {
	return hasSegmentPrefix(p, "/api")
}

// IsStatic reports whether p is an asset path.
func (rt Routes) IsStatic(p string) bool {
	for _, prefix := range rt.StaticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return false
	}
	for _, e := range rt.StaticExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsPublic reports whether p needs no session.
func (rt Routes) IsPublic(p string) bool {
	if IsAPI(p) {
		for _, prefix := range rt.PublicAPI {
			if hasSegmentPrefix(p, prefix) {
				return true
			}
		}
		return false
	}

	for _, page := range rt.PublicPages {
		if p == page {
			return true
		}
	}
	return false
}

// hasSegmentPrefix matches prefix exactly or followed by "/", so /apix
// is not under /api.
func hasSegmentPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}
