package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ResultFunc observes each delivery attempt.
type ResultFunc func(provider string, err error)

// Chain tries each notifier in order and stops at the first success.
type Chain struct {
	notifiers []Notifier
	log       zerolog.Logger
	onResult  ResultFunc
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger used for failed attempts.
func WithLogger(log zerolog.Logger) ChainOption {
	return func(c *Chain) { c.log = log }
}

// WithResultFunc registers an observer called after every attempt.
func WithResultFunc(fn ResultFunc) ChainOption {
	return func(c *Chain) { c.onResult = fn }
}

// NewChain builds a chain over notifiers. Nil entries are skipped.
func NewChain(notifiers []Notifier, opts ...ChainOption) *Chain {
	c := &Chain{log: zerolog.Nop()}
	for _, n := range notifiers {
		if n != nil {
			c.notifiers = append(c.notifiers, n)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Notifier.
func (c *Chain) Name() string { return "chain" }

// Providers lists the provider names in order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.notifiers))
	for i, n := range c.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Send delivers msg with the first notifier that succeeds. Each failure is
// logged at warn level. If every notifier fails the joined errors are
// returned wrapped in ErrAllFailed.
func (c *Chain) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range c.notifiers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := n.Send(ctx, msg)
		if c.onResult != nil {
			c.onResult(n.Name(), err)
		}
		if err == nil {
			c.log.Debug().Str("provider", n.Name()).Str("to", msg.To).Msg("message sent")
			return nil
		}
		c.log.Warn().Err(err).Str("provider", n.Name()).Str("to", msg.To).Msg("send failed, trying next provider")
		errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
	}
	return fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}

var _ Notifier = (*Chain)(nil)
