package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridConfig configures the SendGrid provider.
type SendGridConfig struct {
	APIKey string
	From   string

	// Host overrides https://api.sendgrid.com, mainly for tests.
	Host string
}

// SendGridNotifier delivers through the SendGrid v3 API.
type SendGridNotifier struct {
	cfg SendGridConfig
}

// NewSendGridNotifier validates cfg and returns a provider.
func NewSendGridNotifier(cfg SendGridConfig) (*SendGridNotifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid: api key is required")
	}
	if cfg.From == "" {
		return nil, errors.New("sendgrid: sender address is required")
	}
	return &SendGridNotifier{cfg: cfg}, nil
}

// Name implements Notifier.
func (n *SendGridNotifier) Name() string { return "sendgrid" }

// Send posts msg to the mail send endpoint. Any non-2xx response is an error.
func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	email := sgmail.NewSingleEmail(
		sgmail.NewEmail("", n.cfg.From),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)

	// sendgrid.Client carries the request body, so each send gets its own.
	req := sendgrid.GetRequest(n.cfg.APIKey, sendGridEndpoint, n.cfg.Host)
	req.Method = "POST"
	client := &sendgrid.Client{Request: req}

	resp, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

var _ Notifier = (*SendGridNotifier)(nil)
