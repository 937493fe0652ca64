package dispatch

import (
	"context"
	"fmt"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/submit"
)

// Announcer publishes created events to the events exchange. It satisfies
// submit.Notifier.
type Announcer struct {
	Broker broker.Broker
}

func (a *Announcer) NotifyCreated(ctx context.Context, c submit.Created) error {
	r := broker.Route{Exchange: checkpoint.EventsExchange, Key: checkpoint.RouteCreated}
	if err := broker.PublishJSON(ctx, a.Broker, r, c); err != nil {
		return fmt.Errorf("announce event %s: %w", c.EventID, err)
	}
	return nil
}

var _ submit.Notifier = (*Announcer)(nil)
