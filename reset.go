package monopay

import (
	"context"
	"errors"

	"github.com/monopay/monopay/internal/hash"
	"github.com/monopay/monopay/notify"
	"github.com/monopay/monopay/password"
	"github.com/monopay/monopay/ratelimit"
	"github.com/monopay/monopay/store"
	"github.com/monopay/monopay/token"
)

// ConfirmResetInput is the confirm-reset form. A nil NewPassword only
// verifies the code.
type ConfirmResetInput struct {
	Email       string
	OTP         string
	ResetToken  string
	NewPassword *string
}

// ResetOutcome says what ConfirmPasswordReset did.
type ResetOutcome int

const (
	// ResetVerified means the code was checked and nothing changed.
	ResetVerified ResetOutcome = iota + 1

	// ResetCompleted means the password was replaced.
	ResetCompleted
)

// RequestPasswordReset emails a one-time code to the account and returns
// the reset token binding that code to it. Delivery failures are logged,
// never returned.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", fail(ErrRequiredFields, FieldEmail, "Email is required.", nil)
	}

	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", a.internal("request_reset", "", err)
	}
	if user == nil {
		return "", fail(ErrAccountNotFound, FieldEmail, "", nil)
	}

	otp, err := token.GenerateOTP()
	if err != nil {
		return "", a.internal("request_reset", "", err)
	}
	resetToken, err := a.resets.Issue(user.ID, user.Email, otp)
	if err != nil {
		return "", a.internal("request_reset", "", err)
	}

	if err := a.notifier.Send(ctx, notify.PasswordResetMessage(user.Email, otp)); err != nil {
		a.log.Warn().Err(err).Str("user_id", user.ID).Msg("reset code delivery failed")
	}

	if l := a.config.ResetLimiter; l != nil {
		if err := l.Reset(ctx, limiterKey(user.Email)); err != nil {
			a.log.Warn().Err(err).Msg("reset attempt counter not cleared")
		}
	}

	return resetToken, nil
}

// ConfirmPasswordReset checks the code and, when a new password is
// given, replaces the account's password.
func (a *Auth) ConfirmPasswordReset(ctx context.Context, in ConfirmResetInput) (ResetOutcome, error) {
	email := NormalizeEmail(in.Email)

	if field, missing := firstEmpty(
		fieldValue{FieldEmail, email},
		fieldValue{FieldOTP, in.OTP},
		fieldValue{FieldResetToken, in.ResetToken},
	); missing {
		return 0, fail(ErrRequiredFields, field, "Email, OTP and reset token are required.", nil)
	}
	if in.NewPassword != nil && passwordTooShort(*in.NewPassword) {
		return 0, fail(ErrPasswordTooShort, FieldNewPassword, "Password must be at least 8 characters.", nil)
	}

	if l := a.config.ResetLimiter; l != nil {
		allowed, err := l.Allow(ctx, limiterKey(email))
		if err != nil {
			a.log.Error().Err(err).Msg("reset attempt limiter failed")
		} else if !allowed {
			return 0, fail(ErrTooManyAttempts, FieldNone, "", ratelimit.ErrRateLimited)
		}
	}

	claims, err := a.resets.Check(in.ResetToken, email, in.OTP)
	if err != nil {
		return 0, fail(ErrInvalidResetToken, FieldNone, "", err)
	}

	tokenHash := hash.SHA256(in.ResetToken)
	if a.config.SingleUseResetTokens {
		used, err := a.store.IsResetTokenUsed(ctx, tokenHash)
		if err != nil {
			return 0, a.internal("confirm_reset", "", err)
		}
		if used {
			return 0, fail(ErrInvalidResetToken, FieldNone, "", nil)
		}
	}

	if in.NewPassword == nil {
		return ResetVerified, nil
	}

	newHash, err := a.hasher.Hash(*in.NewPassword)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return 0, fail(ErrPasswordTooLong, FieldNewPassword, "", err)
		}
		return 0, a.internal("confirm_reset", "", err)
	}

	if err := a.store.UpdatePasswordHash(ctx, claims.Email, newHash); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return 0, fail(ErrInvalidResetToken, FieldNone, "", err)
		}
		return 0, a.internal("confirm_reset", "Failed to update password.", err)
	}

	if a.config.SingleUseResetTokens {
		expiresAt := a.now().Add(a.config.ResetTokenTTL)
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		if err := a.store.MarkResetTokenUsed(ctx, tokenHash, expiresAt); err != nil {
			a.log.Error().Err(err).Str("user_id", claims.UserID).Msg("reset token not recorded as used")
		}
	}

	a.log.Info().Str("user_id", claims.UserID).Msg("password reset")
	return ResetCompleted, nil
}

func limiterKey(email string) string {
	return "reset:" + email
}
