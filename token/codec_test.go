package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionSecret = "session-secret-at-least-32-chars!!"
	resetSecret   = "reset-secret-at-least-32-characters"
)

// fakeClock is a settable clock anchored on a whole second.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newSession(t *testing.T, clock *fakeClock) *SessionCodec {
	t.Helper()
	c, err := NewSessionCodec(Config{Secret: sessionSecret, TTL: 7 * 24 * time.Hour, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewSessionCodec: %v", err)
	}
	return c
}

func TestNewSessionCodec_Config(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"defaults to HS256", Config{Secret: sessionSecret, TTL: time.Hour}, nil},
		{"HS384", Config{Secret: sessionSecret, TTL: time.Hour, SigningMethod: "HS384"}, nil},
		{"HS512", Config{Secret: sessionSecret, TTL: time.Hour, SigningMethod: "HS512"}, nil},
		{"empty secret", Config{TTL: time.Hour}, ErrEmptySecret},
		{"zero ttl", Config{Secret: sessionSecret}, ErrNonPositiveTTL},
		{"rsa not supported", Config{Secret: sessionSecret, TTL: time.Hour, SigningMethod: "RS256"}, ErrUnsupportedMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSessionCodec(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionCodec_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	c := newSession(t, clock)

	raw, err := c.Issue("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if n := strings.Count(raw, "."); n != 2 {
		t.Fatalf("expected compact JWS, got %q", raw)
	}

	claims, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ada@example.com" {
		t.Errorf("unexpected identity: %+v", claims)
	}
	if claims.Subject != "user-1" {
		t.Errorf("sub = %q, want user-1", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected jti")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Errorf("lifetime = %v, want 168h", got)
	}
}

func TestSessionCodec_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	c := newSession(t, clock)
	raw, _ := c.Issue("user-1", "ada@example.com")

	clock.Advance(7*24*time.Hour - time.Second)
	if _, err := c.Verify(raw); err != nil {
		t.Fatalf("one second before expiry: %v", err)
	}

	clock.Advance(time.Second)
	_, err := c.Verify(raw)
	if !errors.Is(err, ErrTokenExpired) || !errors.Is(err, ErrInvalid) {
		t.Fatalf("at expiry: got %v, want ErrTokenExpired wrapping ErrInvalid", err)
	}
}

func TestSessionCodec_Leeway(t *testing.T) {
	clock := newFakeClock()
	c, err := NewSessionCodec(Config{Secret: sessionSecret, TTL: time.Minute, Leeway: 30 * time.Second, Now: clock.Now})
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := c.Issue("user-1", "ada@example.com")

	clock.Advance(time.Minute + 10*time.Second)
	if _, err := c.Verify(raw); err != nil {
		t.Errorf("within leeway: %v", err)
	}
}

func TestSessionCodec_RejectsTampering(t *testing.T) {
	clock := newFakeClock()
	c := newSession(t, clock)
	raw, _ := c.Issue("user-1", "ada@example.com")

	other, err := NewSessionCodec(Config{Secret: "a-completely-different-secret-value", TTL: time.Hour, Now: clock.Now})
	if err != nil {
		t.Fatal(err)
	}
	foreign, _ := other.Issue("user-1", "ada@example.com")

	// Same claims signed with HS512 and the right secret.
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &SessionClaims{
		UserID: "user-1",
		Email:  "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(sessionSecret))
	if err != nil {
		t.Fatal(err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"truncated", raw[:len(raw)-4]},
		{"wrong secret", foreign},
		{"wrong algorithm", wrongAlg},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Verify(tt.raw); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSessionCodec_RequiresExpiry(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{UserID: "user-1"}).
		SignedString([]byte(sessionSecret))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newSession(t, newFakeClock()).Verify(raw); !errors.Is(err, ErrInvalid) {
		t.Errorf("token without exp: got %v, want ErrInvalid", err)
	}
}
