// Package tally aggregates checkpoint outcomes into a report.
package tally

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
)

// TypeStats counts outcomes for one checkpoint type.
type TypeStats struct {
	Total        int           `json:"total"`
	Nudged       int           `json:"nudged"`
	AutoResolved int           `json:"auto_resolved"`
	Noop         int           `json:"noop"`
	Failed       int           `json:"failed"`
	Resolved     int64         `json:"resolved_rsvps"`
	AvgLag       time.Duration `json:"avg_lag_ns"`
	MaxLag       time.Duration `json:"max_lag_ns"`

	lagSum time.Duration
}

// Report is the tally over every outcome seen.
type Report struct {
	Total         int                  `json:"total"`
	Failed        int                  `json:"failed"`
	FailureRate   float64              `json:"failure_rate"`
	ResolvedRSVPs int64                `json:"resolved_rsvps"`
	ByType        map[string]TypeStats `json:"by_type"`
	ByEvent       map[string]int       `json:"by_event"`
}

// JSON renders the report indented.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Tracker records outcomes. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	outcomes []checkpoint.Outcome
}

func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Record(o checkpoint.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, o)
}

// Count returns how many outcomes have been recorded.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.outcomes)
}

// Report builds a fresh report. Lag is the time between a checkpoint's
// trigger and its handling.
func (t *Tracker) Report() *Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := &Report{ByType: map[string]TypeStats{}, ByEvent: map[string]int{}}
	for _, o := range t.outcomes {
		key := string(o.Checkpoint.Type)
		ts := r.ByType[key]
		ts.Total++
		r.Total++
		r.ByEvent[o.Checkpoint.EventID]++

		switch o.Status {
		case checkpoint.StatusNudged:
			ts.Nudged++
		case checkpoint.StatusAutoResolved:
			ts.AutoResolved++
			ts.Resolved += o.Resolved
			r.ResolvedRSVPs += o.Resolved
		case checkpoint.StatusNoop:
			ts.Noop++
		case checkpoint.StatusFailed:
			ts.Failed++
			r.Failed++
		}

		if !o.HandledAt.IsZero() && !o.Checkpoint.TriggerAt.IsZero() {
			lag := o.HandledAt.Sub(o.Checkpoint.TriggerAt)
			ts.lagSum += lag
			if lag > ts.MaxLag {
				ts.MaxLag = lag
			}
		}
		r.ByType[key] = ts
	}

	for k, ts := range r.ByType {
		if ts.Total > 0 {
			ts.AvgLag = ts.lagSum / time.Duration(ts.Total)
		}
		r.ByType[k] = ts
	}
	if r.Total > 0 {
		r.FailureRate = float64(r.Failed) / float64(r.Total)
	}
	return r
}

// Consume records outcomes from queue until ctx is cancelled.
func (t *Tracker) Consume(ctx context.Context, b broker.Broker, queue string, log zerolog.Logger) error {
	deliveries, err := b.Consume(ctx, queue, "lockstep-tally")
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return errors.New("outcome stream closed")
			}
			var o checkpoint.Outcome
			if err := d.Decode(&o); err != nil {
				log.Warn().Err(err).Msg("dropping undecodable outcome")
				_ = d.Nack(false)
				continue
			}
			t.Record(o)
			_ = d.Ack()
		}
	}
}
