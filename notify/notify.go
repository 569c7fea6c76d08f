// Package notify delivers account emails through an ordered list of
// providers.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// ErrAllFailed is returned by Chain.Send when no provider delivered.
var ErrAllFailed = errors.New("notify: all providers failed")

// Message is a single email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers messages.
type Notifier interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Send delivers msg or returns an error.
	Send(ctx context.Context, msg Message) error
}

// PasswordResetMessage builds the email carrying a reset code.
func PasswordResetMessage(to, otp string) Message {
	return Message{
		To:      to,
		Subject: "Your password reset code",
		Text:    fmt.Sprintf("Your password reset code is: %s", otp),
		HTML:    fmt.Sprintf("<p>Your password reset code is: <strong>%s</strong></p>", otp),
	}
}
