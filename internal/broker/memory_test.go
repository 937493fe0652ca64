package broker

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		if !ok {
			t.Fatal("delivery channel closed")
		}
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	return Delivery{}
}

func TestMemoryDefaultExchange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	if err := m.Publish(ctx, Route{Key: "checkpoints.results"}, Message{Body: []byte("hello")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ch, err := m.Consume(ctx, "checkpoints.results", "t")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if d := receive(t, ch); string(d.Body) != "hello" {
		t.Fatalf("body = %q", d.Body)
	}
}

func TestMemoryBindings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	err := m.Declare(ctx, Topology{
		Exchanges: []Exchange{{Name: "cp"}},
		Queues: []Queue{
			{Name: "cp.reminder", Bindings: []Route{{Exchange: "cp", Key: "reminder"}}},
			{Name: "cp.deadline", Bindings: []Route{{Exchange: "cp", Key: "deadline"}}},
		},
	})
	if err != nil {
		t.Fatalf("declare: %v", err)
	}

	if err := m.Publish(ctx, Route{Exchange: "cp", Key: "deadline"}, Message{Body: []byte("d")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Publish(ctx, Route{Exchange: "cp", Key: "unbound"}, Message{Body: []byte("x")}); err != nil {
		t.Fatalf("publish unbound: %v", err)
	}

	deadline, _ := m.Consume(ctx, "cp.deadline", "t")
	if d := receive(t, deadline); string(d.Body) != "d" || d.RoutingKey != "deadline" {
		t.Fatalf("delivery = %+v", d)
	}

	reminder, _ := m.Consume(ctx, "cp.reminder", "t")
	select {
	case d := <-reminder:
		t.Fatalf("unexpected delivery on reminder queue: %q", d.Body)
	case <-time.After(50 * time.Millisecond):
	}

	if got := len(m.Published()); got != 2 {
		t.Errorf("Published() = %d, want 2", got)
	}
}

func TestMemoryNackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	_ = m.Publish(ctx, Route{Key: "q"}, Message{Body: []byte("again")})
	ch, _ := m.Consume(ctx, "q", "t")

	first := receive(t, ch)
	if first.Redelivered {
		t.Fatal("first delivery should not be redelivered")
	}
	if err := first.Nack(true); err != nil {
		t.Fatalf("nack: %v", err)
	}
	second := receive(t, ch)
	if !second.Redelivered || string(second.Body) != "again" {
		t.Fatalf("second = %+v", second)
	}
	if err := second.Ack(); err != nil {
		t.Fatalf("ack: %v", err)
	}
}

func TestMemoryCloseEndsConsumers(t *testing.T) {
	m := NewMemory()
	ch, err := m.Consume(context.Background(), "q", "t")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	m.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	if err := m.Publish(context.Background(), Route{Key: "q"}, Message{}); err != ErrClosed {
		t.Fatalf("publish after close = %v", err)
	}
}

func TestPublishJSON(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	if err := PublishJSON(ctx, m, Route{Key: "q"}, map[string]int{"n": 3}); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}
	ch, _ := m.Consume(ctx, "q", "t")
	d := receive(t, ch)
	if d.ID == "" || d.ContentType != "application/json" || !d.Persistent {
		t.Errorf("message = %+v", d.Message)
	}
	var got map[string]int
	if err := d.Decode(&got); err != nil || got["n"] != 3 {
		t.Errorf("Decode = %v, %v", got, err)
	}
}
