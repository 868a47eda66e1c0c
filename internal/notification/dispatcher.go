// Package notification fans one logical message out to the push-registered
// devices of a zone or a single user.
package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"waste-collection-backend/internal/apperr"
	"waste-collection-backend/internal/store"
)

// Dispatcher resolves recipients and hands messages to the push transport.
type Dispatcher struct {
	recipients store.RecipientDirectory
	transport  Transport
	log        zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given directory and transport.
func NewDispatcher(recipients store.RecipientDirectory, transport Transport, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		recipients: recipients,
		transport:  transport,
		log:        log.With().Str("component", "dispatcher").Logger(),
	}
}

// NotifyZone multicasts the envelope to every device registered in its zone
// and returns the number of devices notified. Failures are logged, never
// propagated: a broken push path must not surface into the schedule
// mutation that triggered it.
func (d *Dispatcher) NotifyZone(ctx context.Context, env Envelope) int {
	tokens, err := d.recipients.TokensForZone(ctx, env.ZoneID)
	if err != nil {
		d.log.Error().Err(err).Str("zone", env.ZoneID).Msg("failed to resolve zone recipients")
		return 0
	}
	if len(tokens) == 0 {
		return 0
	}

	delivered, err := d.transport.SendMulticast(ctx, tokens, env.Title, env.Body, env.Metadata)
	if err != nil {
		// Report whatever made it through before the failure.
		d.log.Error().Err(err).Str("zone", env.ZoneID).Int("delivered", delivered).Msg("multicast send failed")
		return delivered
	}

	d.log.Info().
		Str("zone", env.ZoneID).
		Str("title", env.Title).
		Int("delivered", delivered).
		Int("targets", len(tokens)).
		Msg("zone notification dispatched")
	return delivered
}

// NotifyUser delivers the envelope to one user's devices. Unlike NotifyZone
// this surfaces delivery failures, since callers of the targeted path want
// to know. A user with no registered device is not an error.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID string, env Envelope) error {
	tokens, err := d.recipients.TokensForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		d.log.Info().Str("user", userID).Msg("user has no registered device, skipping")
		return nil
	}

	var failed error
	for _, token := range tokens {
		if err := d.transport.SendSingle(ctx, token, env.Title, env.Body, env.Metadata); err != nil {
			d.log.Warn().Err(err).Str("user", userID).Str("endpoint", token.Endpoint).Msg("user push failed")
			failed = err
		}
	}
	if failed != nil {
		return fmt.Errorf("%w: user %s: %v", apperr.ErrDeliveryFailed, userID, failed)
	}
	return nil
}
