package monopay

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/store"
)

// SignupInput is the signup form.
type SignupInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// Signup validates in, creates the account and starts a session.
func (a *Auth) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := NormalizeEmail(in.Email)

	if field, missing := firstEmpty(
		fieldValue{FieldFullName, fullName},
		fieldValue{FieldEmail, email},
		fieldValue{FieldPassword, in.Password},
		fieldValue{FieldConfirmPassword, in.ConfirmPassword},
	); missing {
		return nil, fail(ErrRequiredFields, field, "", nil)
	}
	if passwordTooShort(in.Password) {
		return nil, fail(ErrPasswordTooShort, FieldPassword, "", nil)
	}
	if in.Password != in.ConfirmPassword {
		return nil, fail(ErrPasswordMismatch, FieldConfirmPassword, "", nil)
	}
	if !in.AcceptTerms {
		return nil, fail(ErrTermsNotAccepted, FieldAcceptTerms, "", nil)
	}
	if !ValidEmail(email) {
		return nil, fail(ErrInvalidEmail, FieldEmail, "", nil)
	}

	existing, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, a.internal("signup", "An unexpected error occurred during signup.", err)
	}
	if existing != nil {
		return nil, fail(ErrEmailTaken, FieldEmail, "", nil)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return nil, fail(ErrPasswordTooLong, FieldPassword, "", err)
		}
		return nil, a.internal("signup", "An unexpected error occurred during signup.", err)
	}

	now := a.now().UTC()
	user := &store.User{
		ID:            uuid.NewString(),
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, fail(ErrEmailTaken, FieldEmail, "", err)
		}
		return nil, a.internal("signup", "Failed to create account.", err)
	}

	session, err := a.issueSession(user)
	if err != nil {
		return nil, a.internal("signup", "An unexpected error occurred during signup.", err)
	}

	a.log.Info().Str("user_id", user.ID).Msg("account created")
	return session, nil
}

// internal logs cause and returns an Internal error carrying msg.
func (a *Auth) internal(op, msg string, cause error) *Error {
	a.log.Error().Err(cause).Str("op", op).Msg("operation failed")
	return fail(ErrInternal, FieldNone, msg, cause)
}
