package monopay

import (
	"context"

	"github.com/monopay/monopay/store"
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string
	Password string
}

// Login checks credentials and starts a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := NormalizeEmail(in.Email)

	if field, missing := firstEmpty(
		fieldValue{FieldEmail, email},
		fieldValue{FieldPassword, in.Password},
	); missing {
		return nil, fail(ErrRequiredFields, field, "Email and password are required.", nil)
	}
	if !ValidEmail(email) {
		return nil, fail(ErrInvalidEmail, FieldEmail, "", nil)
	}

	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, a.internal("login", "An unexpected error occurred.", err)
	}

	if user == nil {
		_, _ = a.hasher.Verify(in.Password, a.dummyHash)
		return nil, fail(ErrInvalidCredentials, FieldNone, "", nil)
	}

	ok, err := a.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, a.internal("login", "An unexpected error occurred.", err)
	}
	if !ok {
		return nil, fail(ErrInvalidCredentials, FieldNone, "", nil)
	}

	if a.hasher.NeedsRehash(user.PasswordHash) {
		a.rehash(ctx, user.Email, in.Password)
	}

	session, err := a.issueSession(user)
	if err != nil {
		return nil, a.internal("login", "An unexpected error occurred.", err)
	}
	return session, nil
}

// rehash upgrades a legacy hash after a successful login. Failure only
// leaves the old hash in place.
func (a *Auth) rehash(ctx context.Context, email, plaintext string) {
	hash, err := a.hasher.Hash(plaintext)
	if err == nil {
		err = a.store.UpdatePasswordHash(ctx, email, hash)
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("password rehash failed")
		return
	}
	a.log.Debug().Msg("password rehashed")
}

// CurrentUser loads the account behind a verified session. A user deleted
// since the token was issued is reported as unauthorized.
func (a *Auth) CurrentUser(ctx context.Context, userID string) (*store.User, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	user, err := a.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, a.internal("current user", "An unexpected error occurred.", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}
