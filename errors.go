package monopay

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindConflict
	KindNotFound
	KindRateLimited
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Field names the request field an Error refers to. Values match the JSON
// keys of the request bodies.
type Field string

const (
	FieldNone            Field = ""
	FieldFullName        Field = "fullName"
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
	FieldAcceptTerms     Field = "acceptTerms"
	FieldOTP             Field = "otp"
	FieldResetToken      Field = "resetToken"
	FieldNewPassword     Field = "newPassword"
)

// Error codes for categorizing errors.
const (
	CodeRequiredFields     = "REQUIRED_FIELDS"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodePasswordTooLong    = "PASSWORD_TOO_LONG"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodeTermsNotAccepted   = "TERMS_NOT_ACCEPTED"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL"
)

// Error is the structured error returned by every Auth operation.
// Message is safe to show to users; Err is not.
type Error struct {
	Kind    Kind
	Code    string
	Field   Field
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so callers can compare
// against the sentinels below regardless of message or field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for use with errors.Is().
var (
	ErrRequiredFields     = &Error{Kind: KindValidation, Code: CodeRequiredFields, Message: "All fields are required."}
	ErrPasswordTooShort   = &Error{Kind: KindValidation, Code: CodePasswordTooShort, Message: "Password must be at least 8 characters long."}
	ErrPasswordTooLong    = &Error{Kind: KindValidation, Code: CodePasswordTooLong, Message: "Password must be at most 72 bytes long."}
	ErrPasswordMismatch   = &Error{Kind: KindValidation, Code: CodePasswordMismatch, Message: "Passwords do not match."}
	ErrTermsNotAccepted   = &Error{Kind: KindValidation, Code: CodeTermsNotAccepted, Message: "You must accept the terms and conditions."}
	ErrInvalidEmail       = &Error{Kind: KindValidation, Code: CodeInvalidEmail, Message: "Please enter a valid email address."}
	ErrInvalidRequestBody = &Error{Kind: KindValidation, Code: CodeInvalidRequestBody, Message: "Invalid request body."}
	ErrEmailTaken         = &Error{Kind: KindConflict, Code: CodeEmailTaken, Message: "An account with this email already exists."}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid email or password."}
	ErrAccountNotFound    = &Error{Kind: KindNotFound, Code: CodeAccountNotFound, Message: "No account found with this email. Please check the email address or create a new account."}
	ErrInvalidResetToken  = &Error{Kind: KindUnauthorized, Code: CodeInvalidResetToken, Message: "Invalid or expired token/OTP."}
	ErrTooManyAttempts    = &Error{Kind: KindRateLimited, Code: CodeTooManyAttempts, Message: "Too many attempts. Please request a new code."}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: "Unauthorized"}
	ErrInternal           = &Error{Kind: KindInternal, Code: CodeInternal, Message: "Internal server error"}
)

// Configuration errors returned by New.
var (
	ErrConfigInvalid = errors.New("configuration is invalid")
	ErrStoreRequired = errors.New("store is required")
)

// fail derives an *Error from a sentinel. An empty msg keeps the
// sentinel's message.
func fail(sentinel *Error, field Field, msg string, cause error) *Error {
	if msg == "" {
		msg = sentinel.Message
	}
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Field:   field,
		Message: msg,
		Err:     cause,
	}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
