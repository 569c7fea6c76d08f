// Package redis provides Redis storage for MonoPay accounts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/monopay/monopay/store"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "monopay:"

// Key segments appended to the prefix.
const (
	keyUser      = "user:"
	keyUserEmail = "user_email:"
	keyResetUsed = "reset_used:"
)

// maxUpdateRetries bounds optimistic-lock retries in UpdatePasswordHash.
const maxUpdateRetries = 5

// Store implements store.Store using Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Config holds Redis store configuration.
type Config struct {
	// Client is an existing Redis client.
	// If provided, URL and Addr are ignored.
	Client redis.UniversalClient

	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Addr is the Redis server address (host:port), used when URL is empty.
	Addr string

	// Password is the Redis password.
	Password string

	// DB is the Redis database number.
	DB int

	// PoolSize is the maximum number of connections.
	PoolSize int

	// Prefix overrides DefaultPrefix.
	Prefix string

	// Now overrides the clock used to compute ledger TTLs.
	Now func() time.Time
}

// userRecord is the stored form of a user. Unlike store.User it keeps the
// password hash.
type userRecord struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	PasswordHash  string    `json:"password_hash"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toRecord(u *store.User) *userRecord {
	return &userRecord{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		PasswordHash:  u.PasswordHash,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r *userRecord) toUser() *store.User {
	return &store.User{
		ID:            r.ID,
		Email:         r.Email,
		FullName:      r.FullName,
		PasswordHash:  r.PasswordHash,
		EmailVerified: r.EmailVerified,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// New creates a new Redis store.
func New(cfg *Config) (*Store, error) {
	client := cfg.Client
	if client == nil {
		var opts *redis.Options
		if cfg.URL != "" {
			var err error
			opts, err = redis.ParseURL(cfg.URL)
			if err != nil {
				return nil, fmt.Errorf("parse redis url: %w", err)
			}
		} else {
			opts = &redis.Options{
				Addr:     cfg.Addr,
				Password: cfg.Password,
				DB:       cfg.DB,
			}
		}
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		client = redis.NewClient(opts)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{client: client, prefix: prefix, now: now}, nil
}

// Client exposes the underlying client so other components can share it.
func (s *Store) Client() redis.UniversalClient {
	return s.client
}

func (s *Store) userKey(id string) string { return s.prefix + keyUser + id }

func (s *Store) emailKey(email string) string { return s.prefix + keyUserEmail + email }

func (s *Store) resetKey(tokenHash string) string { return s.prefix + keyResetUsed + tokenHash }

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Migrate is a no-op for Redis as it doesn't require schema migration.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// CreateUser claims the email index with SETNX, then writes the record.
// The claim is released if the record write fails.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	data, err := json.Marshal(toRecord(u))
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, s.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return store.ErrUserExists
	}

	if err := s.client.Set(ctx, s.userKey(u.ID), data, 0).Err(); err != nil {
		_ = s.client.Del(ctx, s.emailKey(u.Email)).Err()
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// GetUserByEmail resolves the email index, then loads the record.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID loads a user record.
func (s *Store) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	rec, err := s.getRecord(ctx, s.client, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toUser(), nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) getRecord(ctx context.Context, c getter, id string) (*userRecord, error) {
	data, err := c.Get(ctx, s.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &rec, nil
}

// UpdatePasswordHash rewrites the user record under WATCH so a concurrent
// writer cannot be silently overwritten.
func (s *Store) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return store.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}

	key := s.userKey(id)
	txf := func(tx *redis.Tx) error {
		rec, err := s.getRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrUserNotFound
		}
		rec.PasswordHash = passwordHash
		rec.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update password: %w", err)
}

// MarkResetTokenUsed stores the hash with a TTL ending at expiresAt.
// Entries that are already expired are not written.
func (s *Store) MarkResetTokenUsed(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.resetKey(tokenHash), 1, ttl).Err(); err != nil {
		return fmt.Errorf("mark reset token: %w", err)
	}
	return nil
}

// IsResetTokenUsed reports whether the hash key still exists.
func (s *Store) IsResetTokenUsed(ctx context.Context, tokenHash string) (bool, error) {
	n, err := s.client.Exists(ctx, s.resetKey(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("check reset token: %w", err)
	}
	return n > 0, nil
}

// DeleteExpiredResetTokens is a no-op: Redis expires ledger keys itself.
func (s *Store) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	return 0, nil
}

var _ store.Store = (*Store)(nil)
