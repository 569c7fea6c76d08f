package monopay

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/monopay/monopay/notify"
	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/store/memory"
)

const (
	testSessionSecret = "session-secret-0123456789abcdef0123"
	testResetSecret   = "reset-secret-0123456789abcdef012345"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// outbox records every message instead of delivering it.
type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (o *outbox) Name() string { return "outbox" }

func (o *outbox) Send(ctx context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return o.err
}

// lastOTP extracts the code from the most recent reset email.
func (o *outbox) lastOTP(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == 0 {
		t.Fatal("no message sent")
	}
	text := o.msgs[len(o.msgs)-1].Text
	i := strings.LastIndex(text, ": ")
	if i < 0 {
		t.Fatalf("unexpected message text %q", text)
	}
	return strings.TrimSpace(text[i+2:])
}

type testEnv struct {
	auth  *Auth
	store *memory.Store
	clock *fakeClock
	box   *outbox
}

func newTestAuth(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clock := newFakeClock()
	s := memory.New(memory.WithClock(clock.Now))
	box := &outbox{}

	base := []Option{
		WithSecrets(testSessionSecret, testResetSecret),
		WithStore(s),
		WithPasswordHasher(password.NewBcryptHasher(&password.BcryptConfig{Cost: 4})),
		WithNotifier(box),
		WithClock(clock.Now),
	}
	auth, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { auth.Close() })

	return &testEnv{auth: auth, store: s, clock: clock, box: box}
}

func validSignup(email string) SignupInput {
	return SignupInput{
		FullName:        "Ada Lovelace",
		Email:           email,
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
		AcceptTerms:     true,
	}
}

func strPtr(s string) *string { return &s }
