// Package storetest is a conformance suite shared by every store.Store
// backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/monopay/monopay/store"
)

var seq atomic.Int64

// uniqueEmail returns an email no other subtest in the process uses, so
// the suite can run against a shared database.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewUser returns a fully populated user with a fresh ID.
func NewUser(email string) *store.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &store.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     "Ada Lovelace",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuuJ4e1fZ8h2Zt7W3ZQ0vR8Q0x5b6cW2y",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Run exercises s against the store.Store contract.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("Ping", func(t *testing.T) {
		if err := s.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, s) })
	t.Run("Missing", func(t *testing.T) { testMissing(t, s) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, s) })
	t.Run("ConcurrentDuplicate", func(t *testing.T) { testConcurrentDuplicate(t, s) })
	t.Run("UpdatePasswordHash", func(t *testing.T) { testUpdatePasswordHash(t, s) })
	t.Run("ResetLedger", func(t *testing.T) { testResetLedger(t, s) })
}

func testCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(uniqueEmail("create"))

	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, u.Email)
	if err != nil || byEmail == nil {
		t.Fatalf("GetUserByEmail() = %v, %v", byEmail, err)
	}
	if byEmail.ID != u.ID || byEmail.FullName != u.FullName || byEmail.PasswordHash != u.PasswordHash {
		t.Errorf("GetUserByEmail() = %+v, want %+v", byEmail, u)
	}
	if byEmail.EmailVerified {
		t.Error("EmailVerified should default to false")
	}
	if !byEmail.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", byEmail.CreatedAt, u.CreatedAt)
	}

	byID, err := s.GetUserByID(ctx, u.ID)
	if err != nil || byID == nil || byID.Email != u.Email {
		t.Fatalf("GetUserByID() = %v, %v", byID, err)
	}
}

func testMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	if u, err := s.GetUserByEmail(ctx, uniqueEmail("missing")); u != nil || err != nil {
		t.Errorf("GetUserByEmail() = %v, %v; want nil, nil", u, err)
	}
	if u, err := s.GetUserByID(ctx, uuid.NewString()); u != nil || err != nil {
		t.Errorf("GetUserByID() = %v, %v; want nil, nil", u, err)
	}
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := uniqueEmail("dup")

	if err := s.CreateUser(ctx, NewUser(email)); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := s.CreateUser(ctx, NewUser(email)); !errors.Is(err, store.ErrUserExists) {
		t.Errorf("CreateUser() duplicate = %v, want ErrUserExists", err)
	}
}

func testConcurrentDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := uniqueEmail("race")

	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateUser(ctx, NewUser(email))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, store.ErrUserExists):
				conflicts.Add(1)
			default:
				t.Errorf("CreateUser() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 || conflicts.Load() != 7 {
		t.Errorf("created=%d conflicts=%d, want 1 and 7", created.Load(), conflicts.Load())
	}
}

func testUpdatePasswordHash(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(uniqueEmail("update"))
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := s.UpdatePasswordHash(ctx, u.Email, "$2a$10$replaced"); err != nil {
		t.Fatalf("UpdatePasswordHash() error = %v", err)
	}
	got, _ := s.GetUserByEmail(ctx, u.Email)
	if got == nil || got.PasswordHash != "$2a$10$replaced" {
		t.Errorf("PasswordHash = %v, want replaced", got)
	}

	err := s.UpdatePasswordHash(ctx, uniqueEmail("ghost"), "x")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("UpdatePasswordHash() missing = %v, want ErrUserNotFound", err)
	}
}

func testResetLedger(t *testing.T, s store.Store) {
	ctx := context.Background()
	live := fmt.Sprintf("%064d", seq.Add(1))
	stale := fmt.Sprintf("%064d", seq.Add(1))

	if used, err := s.IsResetTokenUsed(ctx, live); err != nil || used {
		t.Fatalf("IsResetTokenUsed() before mark = %v, %v", used, err)
	}

	if err := s.MarkResetTokenUsed(ctx, live, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("MarkResetTokenUsed() error = %v", err)
	}
	if err := s.MarkResetTokenUsed(ctx, live, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("MarkResetTokenUsed() twice error = %v", err)
	}
	if err := s.MarkResetTokenUsed(ctx, stale, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("MarkResetTokenUsed() error = %v", err)
	}

	if used, err := s.IsResetTokenUsed(ctx, live); err != nil || !used {
		t.Errorf("IsResetTokenUsed(live) = %v, %v; want true", used, err)
	}
	if used, _ := s.IsResetTokenUsed(ctx, stale); used {
		t.Error("IsResetTokenUsed(stale) = true, want false")
	}

	if _, err := s.DeleteExpiredResetTokens(ctx); err != nil {
		t.Fatalf("DeleteExpiredResetTokens() error = %v", err)
	}
	if used, _ := s.IsResetTokenUsed(ctx, live); !used {
		t.Error("live entry should survive the purge")
	}
}
