package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes messages to the log instead of sending them. It is the
// development fallback and never fails.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier returns a LogNotifier writing to log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Name implements Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Send logs the message body, which includes any code it carries.
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.Info().
		Str("provider", n.Name()).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg(msg.Text)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
