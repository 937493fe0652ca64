// Package checkpoint defines the messages exchanged while firing scheduled
// checkpoints.
package checkpoint

import (
	"time"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

// Exchange and queue names.
const (
	Exchange     = "lockstep.checkpoints"
	QueueResults = "checkpoints.results"

	EventsExchange = "lockstep.events"
	QueueCreated   = "events.created"
	RouteCreated   = "event.created"
)

// Queue returns the queue for a checkpoint type (e.g. "checkpoints.reminder").
func Queue(t template.CheckpointType) string {
	return "checkpoints." + string(t)
}

// Due is a checkpoint whose trigger time has passed.
type Due struct {
	ID            string                  `json:"id"`
	EventID       string                  `json:"event_id"`
	EventTitle    string                  `json:"event_title"`
	EventStart    time.Time               `json:"event_start"`
	TriggerAt     time.Time               `json:"trigger_at"`
	Type          template.CheckpointType `json:"type"`
	Message       string                  `json:"message"`
	AutoResolveTo *template.Response      `json:"auto_resolve_to,omitempty"`
}

// Status is what a worker did with a checkpoint.
type Status string

const (
	StatusNudged       Status = "nudged"
	StatusAutoResolved Status = "auto_resolved"
	StatusNoop         Status = "noop"
	StatusFailed       Status = "failed"
)

// Outcome is published to QueueResults once a checkpoint is handled.
type Outcome struct {
	Checkpoint Due       `json:"checkpoint"`
	Status     Status    `json:"status"`
	Pending    int       `json:"pending"`
	Resolved   int64     `json:"resolved"`
	Nudge      string    `json:"nudge,omitempty"`
	Error      string    `json:"error,omitempty"`
	WorkerID   int       `json:"worker_id"`
	HandledAt  time.Time `json:"handled_at"`
}

// Route returns the publish route for a checkpoint type.
func Route(t template.CheckpointType) broker.Route {
	return broker.Route{Exchange: Exchange, Key: string(t)}
}

// Topology declares the checkpoint exchange, one queue per checkpoint
// type, the results queue, and the event announcement queue.
func Topology() broker.Topology {
	t := broker.Topology{
		Exchanges: []broker.Exchange{
			{Name: Exchange, Kind: "direct", Durable: true},
			{Name: EventsExchange, Kind: "direct", Durable: true},
		},
	}
	for _, ct := range template.CheckpointTypes() {
		t.Queues = append(t.Queues, broker.Queue{
			Name:     Queue(ct),
			Durable:  true,
			Bindings: []broker.Route{Route(ct)},
		})
	}
	t.Queues = append(t.Queues,
		broker.Queue{Name: QueueResults, Durable: true},
		broker.Queue{
			Name:     QueueCreated,
			Durable:  true,
			Bindings: []broker.Route{{Exchange: EventsExchange, Key: RouteCreated}},
		},
	)
	return t
}
