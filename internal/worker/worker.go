// Package worker handles fired checkpoints: reminders become nudges and
// deadlines resolve the RSVPs nobody answered.
package worker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/summary"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

// RSVPs is the storage a worker reads and writes. *store.Store satisfies
// it.
type RSVPs interface {
	PendingGuests(ctx context.Context, eventID string) (int, error)
	AutoResolve(ctx context.Context, eventID string, resp template.Response) (int64, error)
}

// Nudger writes reminder text. *summary.Service satisfies it.
type Nudger interface {
	Generate(ctx context.Context, req summary.Request) summary.Response
}

// Worker consumes one checkpoint queue.
type Worker struct {
	ID     int
	Type   template.CheckpointType
	Broker broker.Broker
	RSVPs  RSVPs
	Nudger Nudger
	Log    zerolog.Logger
	Now    func() time.Time
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Run consumes until ctx is cancelled or the broker goes away. Every
// handled checkpoint produces one Outcome on checkpoint.QueueResults.
func (w *Worker) Run(ctx context.Context) error {
	queue := checkpoint.Queue(w.Type)
	deliveries, err := w.Broker.Consume(ctx, queue, w.consumerTag())
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	return w.Serve(ctx, deliveries)
}

func (w *Worker) consumerTag() string {
	return fmt.Sprintf("lockstep-%s-%d", w.Type, w.ID)
}

// Serve handles deliveries from ch until it closes or ctx is done.
func (w *Worker) Serve(ctx context.Context, ch <-chan broker.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-ch:
			if !ok {
				return nil
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d broker.Delivery) {
	var c checkpoint.Due
	if err := d.Decode(&c); err != nil {
		w.Log.Error().Err(err).Msg("dropping undecodable checkpoint")
		_ = d.Nack(false)
		return
	}

	out := w.Handle(ctx, c)
	if out.Status == checkpoint.StatusFailed && !d.Redelivered {
		w.Log.Warn().Str("checkpoint_id", c.ID).Str("error", out.Error).Msg("checkpoint failed, requeueing")
		_ = d.Nack(true)
		return
	}

	if err := broker.PublishJSON(ctx, w.Broker, broker.Route{Key: checkpoint.QueueResults}, out); err != nil {
		w.Log.Error().Err(err).Str("checkpoint_id", c.ID).Msg("publish outcome")
		_ = d.Nack(true)
		return
	}
	_ = d.Ack()
}

// Handle runs the checkpoint and reports what happened.
func (w *Worker) Handle(ctx context.Context, c checkpoint.Due) checkpoint.Outcome {
	out := checkpoint.Outcome{Checkpoint: c, WorkerID: w.ID}
	log := w.Log.With().Str("checkpoint_id", c.ID).Str("event_id", c.EventID).Logger()

	pending, err := w.RSVPs.PendingGuests(ctx, c.EventID)
	if err != nil {
		return w.fail(out, err)
	}
	out.Pending = pending

	switch {
	case pending == 0:
		out.Status = checkpoint.StatusNoop
	case c.AutoResolveTo != nil:
		n, err := w.RSVPs.AutoResolve(ctx, c.EventID, *c.AutoResolveTo)
		if err != nil {
			return w.fail(out, err)
		}
		out.Status = checkpoint.StatusAutoResolved
		out.Resolved = n
		log.Info().Int64("resolved", n).Str("response", string(*c.AutoResolveTo)).Msg("auto-resolved pending rsvps")
	default:
		out.Status = checkpoint.StatusNudged
		out.Nudge = w.nudge(ctx, c, pending)
		log.Info().Int("pending", pending).Msg("nudge composed")
	}
	out.HandledAt = w.now().UTC()
	return out
}

func (w *Worker) fail(out checkpoint.Outcome, err error) checkpoint.Outcome {
	out.Status = checkpoint.StatusFailed
	out.Error = err.Error()
	out.HandledAt = w.now().UTC()
	return out
}

// nudge prefers generated reminder text and falls back to the
// checkpoint's own message.
func (w *Worker) nudge(ctx context.Context, c checkpoint.Due, pending int) string {
	if w.Nudger != nil {
		res := w.Nudger.Generate(ctx, summary.Request{
			EventID:        c.EventID,
			EventTitle:     c.EventTitle,
			PendingCount:   pending,
			DaysUntilEvent: DaysUntil(w.now(), c.EventStart),
			SummaryType:    summary.TypeNudge,
		})
		if res.Summary != "" {
			return res.Summary
		}
	}
	return fmt.Sprintf("%s: %s", c.EventTitle, c.Message)
}

// DaysUntil rounds the time left before start up to whole days.
func DaysUntil(now, start time.Time) int {
	if start.IsZero() {
		return 0
	}
	return int(math.Ceil(start.Sub(now).Hours() / 24))
}
