// Package memory provides an in-memory store for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/monopay/monopay/store"
)

// Store is an in-memory implementation of store.Store. Data is lost when
// the process exits.
type Store struct {
	mu sync.RWMutex

	users   map[string]*store.User // by ID
	byEmail map[string]string      // email -> ID
	used    map[string]time.Time   // token hash -> expiry

	now    func() time.Time
	closed bool
}

// Option configures a memory store.
type Option func(*Store)

// WithClock overrides the clock used for ledger expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		users:   make(map[string]*store.User),
		byEmail: make(map[string]string),
		used:    make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Ping reports ErrClosed after Close.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// CreateUser inserts user, enforcing email uniqueness under the write lock.
func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if _, taken := s.byEmail[user.Email]; taken {
		return store.ErrUserExists
	}
	s.users[user.ID] = user.Clone()
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	return s.users[id].Clone(), nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return s.users[id].Clone(), nil
}

// UpdatePasswordHash replaces the stored hash for email.
func (s *Store) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	id, ok := s.byEmail[email]
	if !ok {
		return store.ErrUserNotFound
	}
	u := s.users[id]
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now()
	return nil
}

// MarkResetTokenUsed records a redeemed reset token.
func (s *Store) MarkResetTokenUsed(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.used[tokenHash] = expiresAt
	return nil
}

// IsResetTokenUsed reports whether tokenHash is recorded and unexpired.
func (s *Store) IsResetTokenUsed(ctx context.Context, tokenHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, store.ErrClosed
	}
	exp, ok := s.used[tokenHash]
	return ok && s.now().Before(exp), nil
}

// DeleteExpiredResetTokens purges expired ledger entries.
func (s *Store) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, store.ErrClosed
	}
	now := s.now()
	var count int64
	for h, exp := range s.used {
		if !now.Before(exp) {
			delete(s.used, h)
			count++
		}
	}
	return count, nil
}

var _ store.Store = (*Store)(nil)
