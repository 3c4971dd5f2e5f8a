// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// Sender delivers envelopes over a transport the core does not own.
type Sender interface {
	Send(ctx context.Context, env models.Envelope) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, env models.Envelope) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, env models.Envelope) error {
	return f(ctx, env)
}

// Pump drains sub into sender until the subscription closes, ctx ends or a
// send fails. A closed subscription ends the pump without error.
func Pump(ctx context.Context, sub *Subscription, sender Sender) error {
	for {
		env, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrSubscriptionClosed) {
				return nil
			}
			return err
		}
		if err := sender.Send(ctx, env); err != nil {
			return fmt.Errorf("send %s on %s: %w", env.Type, sub.Topic(), err)
		}
	}
}
