package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

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

func newGate(t *testing.T) *middleware.Gate {
	t.Helper()
	g, err := middleware.NewGate(middleware.Config{
		Verifier: stubVerifier{"good": {UserID: "user-1", Email: "ada@example.com"}},
	})
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}
	return g
}

func TestUse(t *testing.T) {
	r := chi.NewRouter()
	Use(r, newGate(t))
	r.Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := Claims(r)
		if !ok || claims.Email != "ada@example.com" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(UserID(r)))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "user-1" {
		t.Errorf("status = %d, body = %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}
}

func TestGate_Group(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Group(func(r chi.Router) {
		r.Use(Gate(newGate(t)))
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("healthz status = %d, want 204", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("dashboard status = %d, want 307", w.Code)
	}
}
