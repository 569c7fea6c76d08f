package echo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/token"
)

type stubVerifier map[string]*token.SessionClaims

func (s stubVerifier) Verify(raw string) (*token.SessionClaims, error) {
	if c, ok := s[raw]; ok {
		return c, nil
	}
	return nil, token.ErrInvalid
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	g, err := middleware.NewGate(middleware.Config{
		Verifier: stubVerifier{"good": {UserID: "user-1", Email: "ada@example.com"}},
	})
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}

	e := echo.New()
	e.Use(Gate(g))
	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"header": c.Request().Header.Get(middleware.HeaderUserEmail),
			"ctx":    middleware.GetUserID(c.Request().Context()),
			"local":  UserID(c),
		})
	}
	e.GET("/api/me", handler)
	e.GET("/dashboard", handler)
	e.GET("/static/app.js", handler)
	return e
}

func TestEchoGate_AllowedAPI(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "good"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["header"] != "ada@example.com" || body["ctx"] != "user-1" || body["local"] != "user-1" {
		t.Errorf("body = %v", body)
	}
}

func TestEchoGate_Rejections(t *testing.T) {
	e := newServer(t)

	tests := []struct {
		name       string
		path       string
		bearer     string
		wantStatus int
		wantError  string
		wantLoc    string
	}{
		{"api missing", "/api/me", "", http.StatusUnauthorized, middleware.MessageUnauthorized, ""},
		{"api invalid", "/api/me", "bad", http.StatusUnauthorized, middleware.MessageInvalidToken, ""},
		{"page missing", "/dashboard", "", http.StatusTemporaryRedirect, "", "/login?redirect=%2Fdashboard"},
		{"static", "/static/app.js", "", http.StatusOK, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				var body map[string]string
				json.Unmarshal(rec.Body.Bytes(), &body)
				if body["error"] != tt.wantError {
					t.Errorf("error = %q, want %q", body["error"], tt.wantError)
				}
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q", rec.Header().Get("Location"))
			}
		})
	}
}
