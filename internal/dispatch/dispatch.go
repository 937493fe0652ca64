// Package dispatch finds due checkpoints and hands them to the broker in
// trigger order.
package dispatch

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/timeouts"
)

// Source is the checkpoint storage the dispatcher polls. *store.Store
// satisfies it.
type Source interface {
	DueCheckpoints(ctx context.Context, now time.Time, limit int) ([]checkpoint.Due, error)
	// MarkFired claims a checkpoint. It reports false when someone else
	// already fired it.
	MarkFired(ctx context.Context, id string, at time.Time) (bool, error)
}

// dueQueue orders checkpoints by trigger time, earliest first.
type dueQueue []*checkpoint.Due

func (q dueQueue) Len() int { return len(q) }

func (q dueQueue) Less(i, j int) bool {
	if q[i].TriggerAt.Equal(q[j].TriggerAt) {
		return q[i].ID < q[j].ID
	}
	return q[i].TriggerAt.Before(q[j].TriggerAt)
}

func (q dueQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *dueQueue) Push(x any) { *q = append(*q, x.(*checkpoint.Due)) }

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Stats counts dispatcher work.
type Stats struct {
	Dispatched int64
	Skipped    int64
	Failed     int64
}

// Options tune a Dispatcher. Zero values pick defaults.
type Options struct {
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
	Log       zerolog.Logger
}

// Dispatcher polls Source and publishes each due checkpoint to the
// checkpoint exchange, routed by checkpoint type.
type Dispatcher struct {
	src    Source
	broker broker.Broker
	opts   Options

	mu sync.Mutex // guards pq
	pq dueQueue

	dispatched atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
}

func New(src Source, b broker.Broker, opts Options) *Dispatcher {
	if opts.Interval <= 0 {
		opts.Interval = timeouts.DispatchPoll
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Dispatcher{src: src, broker: b, opts: opts}
	heap.Init(&d.pq)
	return d
}

// Setup declares the checkpoint topology.
func (d *Dispatcher) Setup(ctx context.Context) error {
	if err := d.broker.Declare(ctx, checkpoint.Topology()); err != nil {
		return fmt.Errorf("declare checkpoint topology: %w", err)
	}
	return nil
}

// Run polls immediately and then every Interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.Poll(ctx); err != nil && ctx.Err() == nil {
			d.opts.Log.Error().Err(err).Msg("poll due checkpoints")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll dispatches one batch and returns how many checkpoints it
// published.
func (d *Dispatcher) Poll(ctx context.Context) (int, error) {
	now := d.opts.Now()
	due, err := d.src.DueCheckpoints(ctx, now, d.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	for i := range due {
		heap.Push(&d.pq, &due[i])
	}
	batch := d.drainLocked()
	d.mu.Unlock()

	sent := 0
	for _, c := range batch {
		if d.dispatch(ctx, c, now) {
			sent++
		}
	}
	return sent, nil
}

// drainLocked pops every queued checkpoint. Caller must hold d.mu.
func (d *Dispatcher) drainLocked() []*checkpoint.Due {
	batch := make([]*checkpoint.Due, 0, d.pq.Len())
	for d.pq.Len() > 0 {
		batch = append(batch, heap.Pop(&d.pq).(*checkpoint.Due))
	}
	return batch
}

// dispatch claims c and publishes it. A checkpoint is claimed before it is
// published so two dispatchers never both send it.
func (d *Dispatcher) dispatch(ctx context.Context, c *checkpoint.Due, now time.Time) bool {
	log := d.opts.Log.With().Str("checkpoint_id", c.ID).Str("event_id", c.EventID).Str("type", string(c.Type)).Logger()

	claimed, err := d.src.MarkFired(ctx, c.ID, now)
	if err != nil {
		log.Error().Err(err).Msg("mark checkpoint fired")
		d.failed.Add(1)
		return false
	}
	if !claimed {
		d.skipped.Add(1)
		return false
	}

	if err := broker.PublishJSON(ctx, d.broker, checkpoint.Route(c.Type), c); err != nil {
		log.Error().Err(err).Msg("publish checkpoint")
		d.failed.Add(1)
		return false
	}
	log.Debug().Time("trigger_at", c.TriggerAt).Msg("checkpoint dispatched")
	d.dispatched.Add(1)
	return true
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched: d.dispatched.Load(),
		Skipped:    d.skipped.Load(),
		Failed:     d.failed.Load(),
	}
}
