package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/summary"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

type fakeRSVPs struct {
	mu       sync.Mutex
	pending  int
	resolved map[string]template.Response
	err      error
	failOnce bool
}

func (f *fakeRSVPs) PendingGuests(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		err := f.err
		if f.failOnce {
			f.err = nil
		}
		return 0, err
	}
	return f.pending, nil
}

func (f *fakeRSVPs) AutoResolve(_ context.Context, eventID string, resp template.Response) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved == nil {
		f.resolved = map[string]template.Response{}
	}
	f.resolved[eventID] = resp
	n := int64(f.pending * 2)
	f.pending = 0
	return n, nil
}

type fixedNudger struct{ got summary.Request }

func (n *fixedNudger) Generate(_ context.Context, req summary.Request) summary.Response {
	n.got = req
	return summary.Response{Summary: "Don't leave us hanging!", Model: "m"}
}

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func cp(typ template.CheckpointType, resolve *template.Response) checkpoint.Due {
	return checkpoint.Due{
		ID:            "c1",
		EventID:       "e1",
		EventTitle:    "Sam's Trip",
		EventStart:    now.Add(36 * time.Hour),
		TriggerAt:     now,
		Type:          typ,
		Message:       "Please RSVP",
		AutoResolveTo: resolve,
	}
}

func TestHandleReminderNudges(t *testing.T) {
	n := &fixedNudger{}
	w := &Worker{RSVPs: &fakeRSVPs{pending: 3}, Nudger: n, Now: func() time.Time { return now }}

	out := w.Handle(context.Background(), cp(template.CheckpointReminder, nil))
	if out.Status != checkpoint.StatusNudged || out.Pending != 3 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Nudge != "Don't leave us hanging!" {
		t.Errorf("nudge = %q", out.Nudge)
	}
	if n.got.SummaryType != summary.TypeNudge || n.got.DaysUntilEvent != 2 || n.got.PendingCount != 3 {
		t.Errorf("nudge request = %+v", n.got)
	}
}

func TestHandleReminderWithoutNudger(t *testing.T) {
	w := &Worker{RSVPs: &fakeRSVPs{pending: 1}}
	out := w.Handle(context.Background(), cp(template.CheckpointReminder, nil))
	if out.Nudge != "Sam's Trip: Please RSVP" {
		t.Errorf("nudge = %q", out.Nudge)
	}
}

func TestHandleDeadlineAutoResolves(t *testing.T) {
	rs := &fakeRSVPs{pending: 2}
	w := &Worker{RSVPs: rs}
	out := template.ResponseOut

	got := w.Handle(context.Background(), cp(template.CheckpointDeadline, &out))
	if got.Status != checkpoint.StatusAutoResolved || got.Resolved != 4 {
		t.Fatalf("outcome = %+v", got)
	}
	if rs.resolved["e1"] != template.ResponseOut {
		t.Errorf("resolved = %v", rs.resolved)
	}
}

func TestHandleNothingPending(t *testing.T) {
	out := template.ResponseOut
	w := &Worker{RSVPs: &fakeRSVPs{}}
	if got := w.Handle(context.Background(), cp(template.CheckpointDeadline, &out)); got.Status != checkpoint.StatusNoop {
		t.Errorf("status = %s", got.Status)
	}
}

func TestHandleFailure(t *testing.T) {
	w := &Worker{RSVPs: &fakeRSVPs{err: errors.New("db down")}}
	got := w.Handle(context.Background(), cp(template.CheckpointFinal, nil))
	if got.Status != checkpoint.StatusFailed || got.Error != "db down" {
		t.Errorf("outcome = %+v", got)
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		start time.Time
		want  int
	}{
		{now.Add(36 * time.Hour), 2},
		{now.Add(24 * time.Hour), 1},
		{now.Add(time.Minute), 1},
		{now.Add(-time.Hour), 0},
		{time.Time{}, 0},
	}
	for _, tt := range tests {
		if got := DaysUntil(now, tt.start); got != tt.want {
			t.Errorf("DaysUntil(%v) = %d, want %d", tt.start, got, tt.want)
		}
	}
}

func readOutcome(t *testing.T, ch <-chan broker.Delivery) checkpoint.Outcome {
	t.Helper()
	select {
	case d := <-ch:
		var out checkpoint.Outcome
		if err := d.Decode(&out); err != nil {
			t.Fatal(err)
		}
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}
	return checkpoint.Outcome{}
}

func TestRunPublishesOutcome(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mb := broker.NewMemory()
	defer mb.Close()
	_ = mb.Declare(ctx, checkpoint.Topology())

	w := &Worker{ID: 7, Type: template.CheckpointReminder, Broker: mb, RSVPs: &fakeRSVPs{pending: 1}}
	go w.Run(ctx)

	if err := broker.PublishJSON(ctx, mb, checkpoint.Route(template.CheckpointReminder), cp(template.CheckpointReminder, nil)); err != nil {
		t.Fatal(err)
	}
	results, _ := mb.Consume(ctx, checkpoint.QueueResults, "test")
	out := readOutcome(t, results)
	if out.WorkerID != 7 || out.Status != checkpoint.StatusNudged || out.Checkpoint.ID != "c1" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestRunRetriesFailureOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mb := broker.NewMemory()
	defer mb.Close()
	_ = mb.Declare(ctx, checkpoint.Topology())

	rs := &fakeRSVPs{pending: 2, err: errors.New("blip"), failOnce: true}
	w := &Worker{Type: template.CheckpointReminder, Broker: mb, RSVPs: rs}
	go w.Run(ctx)

	_ = broker.PublishJSON(ctx, mb, checkpoint.Route(template.CheckpointReminder), cp(template.CheckpointReminder, nil))
	results, _ := mb.Consume(ctx, checkpoint.QueueResults, "test")
	if out := readOutcome(t, results); out.Status != checkpoint.StatusNudged {
		t.Errorf("status after redelivery = %s", out.Status)
	}
}

func TestPoolRunsEveryType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mb := broker.NewMemory()
	defer mb.Close()
	_ = mb.Declare(ctx, checkpoint.Topology())

	p := &Pool{Broker: mb, RSVPs: &fakeRSVPs{pending: 1}, PerType: 2}
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}

	for _, typ := range template.CheckpointTypes() {
		c := cp(typ, nil)
		c.ID = string(typ)
		_ = broker.PublishJSON(ctx, mb, checkpoint.Route(typ), c)
	}

	results, _ := mb.Consume(ctx, checkpoint.QueueResults, "test")
	seen := map[string]bool{}
	for range template.CheckpointTypes() {
		seen[readOutcome(t, results).Checkpoint.ID] = true
	}
	for _, typ := range template.CheckpointTypes() {
		if !seen[string(typ)] {
			t.Errorf("no outcome for %s", typ)
		}
	}

	if err := p.Shutdown(); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
