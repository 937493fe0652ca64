package tally

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

var base = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func outcome(event string, typ template.CheckpointType, st checkpoint.Status, resolved int64, lag time.Duration) checkpoint.Outcome {
	return checkpoint.Outcome{
		Checkpoint: checkpoint.Due{ID: event + string(typ), EventID: event, Type: typ, TriggerAt: base},
		Status:     st,
		Resolved:   resolved,
		HandledAt:  base.Add(lag),
	}
}

func TestEmptyReport(t *testing.T) {
	r := New().Report()
	if r.Total != 0 || r.FailureRate != 0 || len(r.ByType) != 0 {
		t.Errorf("empty report = %+v", r)
	}
}

func TestReport(t *testing.T) {
	tr := New()
	tr.Record(outcome("e1", template.CheckpointReminder, checkpoint.StatusNudged, 0, time.Second))
	tr.Record(outcome("e2", template.CheckpointReminder, checkpoint.StatusNoop, 0, 3*time.Second))
	tr.Record(outcome("e1", template.CheckpointDeadline, checkpoint.StatusAutoResolved, 6, 2*time.Second))
	tr.Record(outcome("e2", template.CheckpointDeadline, checkpoint.StatusFailed, 0, 0))

	r := tr.Report()
	if r.Total != 4 || r.Failed != 1 || r.ResolvedRSVPs != 6 {
		t.Fatalf("report = %+v", r)
	}
	if r.FailureRate != 0.25 {
		t.Errorf("FailureRate = %v", r.FailureRate)
	}

	rem := r.ByType["reminder"]
	if rem.Nudged != 1 || rem.Noop != 1 || rem.AvgLag != 2*time.Second || rem.MaxLag != 3*time.Second {
		t.Errorf("reminder = %+v", rem)
	}
	dl := r.ByType["deadline"]
	if dl.AutoResolved != 1 || dl.Failed != 1 || dl.Resolved != 6 {
		t.Errorf("deadline = %+v", dl)
	}
	if r.ByEvent["e1"] != 2 || r.ByEvent["e2"] != 2 {
		t.Errorf("ByEvent = %v", r.ByEvent)
	}

	data, err := r.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["resolved_rsvps"].(float64) != 6 {
		t.Errorf("json = %s", data)
	}
}

func TestConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mb := broker.NewMemory()
	defer mb.Close()

	tr := New()
	done := make(chan error, 1)
	go func() { done <- tr.Consume(ctx, mb, checkpoint.QueueResults, zerolog.Nop()) }()

	route := broker.Route{Key: checkpoint.QueueResults}
	_ = broker.PublishJSON(ctx, mb, route, outcome("e1", template.CheckpointFinal, checkpoint.StatusNudged, 0, 0))
	_ = mb.Publish(ctx, route, broker.Message{Body: []byte("not json")})
	_ = broker.PublishJSON(ctx, mb, route, outcome("e2", template.CheckpointFinal, checkpoint.StatusNoop, 0, 0))

	deadline := time.Now().Add(time.Second)
	for tr.Count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Consume = %v", err)
	}
	if got := tr.Report().ByType["final"].Total; got != 2 {
		t.Errorf("final total = %d", got)
	}
}
