package middleware

import (
	"strings"
	"testing"
)

func TestIsAPI(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api", true},
		{"/api/", true},
		{"/api/login", true},
		{"/apix", false},
		{"/apidocs/x", false},
		{"/", false},
		{"/dashboard/api", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAPI(tt.path); got != tt.want {
				t.Errorf("IsAPI(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRoutes_IsStatic(t *testing.T) {
	rt := DefaultRoutes()
	tests := []struct {
		path string
		want bool
	}{
		{"/_next/data/x", true},
		{"/favicon.ico", true},
		{"/static/app", true},
		{"/fonts/inter.woff2", true},
		{"/manifest.json", true},
		{"/img/hero.webp", true},
		{"/dashboard", false},
		{"/report.pdf", false},
		{"/api/keys", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rt.IsStatic(tt.path); got != tt.want {
				t.Errorf("IsStatic(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRoutes_IsPublic(t *testing.T) {
	rt := DefaultRoutes()
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/login", true},
		{"/signup", true},
		{"/login/extra", false},
		{"/dashboard", false},
		{"/api/login", true},
		{"/api/signup", true},
		{"/api/auth/confirm-reset", true},
		{"/api/auth/request-reset/", true},
		{"/api/loginx", false},
		{"/api/me", false},
		{"/api", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rt.IsPublic(tt.path); got != tt.want {
				t.Errorf("IsPublic(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseRoutes_KeepsDefaults(t *testing.T) {
	rt, err := ParseRoutes([]byte("public_pages: [\"/\", \"/about\"]\n"))
	if err != nil {
		t.Fatalf("ParseRoutes() error = %v", err)
	}
	if !rt.IsPublic("/about") {
		t.Error("/about should be public")
	}
	if rt.IsPublic("/login") {
		t.Error("/login should no longer be public")
	}
	if !rt.IsPublic("/api/login") {
		t.Error("public API defaults should be kept")
	}
	if rt.LoginPath != "/login" {
		t.Errorf("LoginPath = %q", rt.LoginPath)
	}
}

func TestParseRoutes_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "public_paegs: [/]\n", "field public_paegs not found"},
		{"relative login", "login_path: login\n", "login_path"},
		{"bad yaml", "public_pages: [\n", "parse routes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoutes([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseRoutes() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadRoutes_MissingFile(t *testing.T) {
	if _, err := LoadRoutes("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"dashboard", "/dashboard"},
		{"/dashboard/", "/dashboard/"},
		{"//dashboard", "/dashboard"},
		{"/_next/../dashboard/", "/dashboard/"},
		{"/static/./../../dashboard", "/dashboard"},
		{"/a//b/./c/", "/a/b/c/"},
		{"/..", "/"},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.in); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
