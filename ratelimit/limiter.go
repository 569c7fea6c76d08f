// Package ratelimit provides fixed-window and sliding-window request limits.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is the cause attached to errors reporting a denied Allow.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter defines the interface for rate limiters.
type Limiter interface {
	// Allow checks if a request is allowed for the given key.
	// Returns true if allowed, false if rate limited.
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN checks if n requests are allowed for the given key.
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Reset resets the rate limit for the given key.
	Reset(ctx context.Context, key string) error

	// Close releases any resources held by the limiter.
	Close() error
}

// Inspector is implemented by limiters that can report their window state.
// Middleware uses it to emit X-RateLimit-* headers.
type Inspector interface {
	Limit() int
	Remaining(key string) int
	ResetAt(key string) time.Time
}

type entry struct {
	count    int
	windowAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. A janitor goroutine
// drops expired windows until Close is called.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    int
	window  time.Duration
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides the limiter's clock.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) { m.now = now }
}

// NewMemoryLimiter creates a limiter allowing rate requests per window.
func NewMemoryLimiter(rate int, window time.Duration, opts ...MemoryOption) *MemoryLimiter {
	m := &MemoryLimiter{
		entries: make(map[string]*entry),
		rate:    rate,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.janitor()

	return m
}

// Allow checks if a request is allowed for the given key.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return m.AllowN(ctx, key, 1)
}

// AllowN records n requests for key if they fit in the current window.
func (m *MemoryLimiter) AllowN(ctx context.Context, key string, n int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.windowAt) {
		m.entries[key] = &entry{count: n, windowAt: now.Add(m.window)}
		return n <= m.rate, nil
	}

	if e.count+n > m.rate {
		return false, nil
	}
	e.count += n
	return true, nil
}

// Reset forgets the window for key.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Close stops the janitor. It is safe to call more than once.
func (m *MemoryLimiter) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Limit implements Inspector.
func (m *MemoryLimiter) Limit() int { return m.rate }

// Remaining implements Inspector.
func (m *MemoryLimiter) Remaining(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.windowAt) {
		return m.rate
	}
	return max(m.rate-e.count, 0)
}

// ResetAt implements Inspector.
func (m *MemoryLimiter) ResetAt(key string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		return e.windowAt
	}
	return m.now().Add(m.window)
}

func (m *MemoryLimiter) janitor() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.windowAt) {
			delete(m.entries, key)
		}
	}
}

var (
	_ Limiter   = (*MemoryLimiter)(nil)
	_ Inspector = (*MemoryLimiter)(nil)
)
