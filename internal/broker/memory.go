package broker

import (
	"context"
	"sync"
)

// Memory is an in-process Broker. Queues buffer until consumed; a queue
// with several consumers hands each message to one of them.
type Memory struct {
	mu        sync.Mutex
	queues    map[string]chan Delivery
	bindings  map[Route][]string
	published []Published
	closed    bool
	done      chan struct{}
}

// Published records one publish for assertions.
type Published struct {
	Route   Route
	Message Message
}

// MemoryQueueSize is the buffer of each in-memory queue.
const MemoryQueueSize = 1024

func NewMemory() *Memory {
	return &Memory{
		queues:   map[string]chan Delivery{},
		bindings: map[Route][]string{},
		done:     make(chan struct{}),
	}
}

// Published returns every message published so far.
func (m *Memory) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.published...)
}

func (m *Memory) Declare(_ context.Context, t Topology) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, q := range t.Queues {
		m.queueLocked(q.Name)
		for _, r := range q.Bindings {
			if !contains(m.bindings[r], q.Name) {
				m.bindings[r] = append(m.bindings[r], q.Name)
			}
		}
	}
	return nil
}

func (m *Memory) queueLocked(name string) chan Delivery {
	q, ok := m.queues[name]
	if !ok {
		q = make(chan Delivery, MemoryQueueSize)
		m.queues[name] = q
	}
	return q
}

// Publish routes msg to bound queues. Messages to an exchange with no
// matching binding are dropped, as AMQP does.
func (m *Memory) Publish(ctx context.Context, r Route, msg Message) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.published = append(m.published, Published{Route: r, Message: msg})
	var targets []chan Delivery
	if r.Exchange == "" {
		targets = append(targets, m.queueLocked(r.Key))
	} else {
		for _, name := range m.bindings[r] {
			targets = append(targets, m.queueLocked(name))
		}
	}
	m.mu.Unlock()

	for _, q := range targets {
		if err := m.enqueue(ctx, q, m.delivery(q, r, msg, false)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) delivery(q chan Delivery, r Route, msg Message, redelivered bool) Delivery {
	d := Delivery{Message: msg, Exchange: r.Exchange, RoutingKey: r.Key, Redelivered: redelivered}
	d.nack = func(requeue bool) error {
		if !requeue {
			return nil
		}
		return m.enqueue(context.Background(), q, m.delivery(q, r, msg, true))
	}
	return d
}

func (m *Memory) enqueue(ctx context.Context, q chan Delivery, d Delivery) error {
	select {
	case q <- d:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Consume(ctx context.Context, queue, _ string) (<-chan Delivery, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	q := m.queueLocked(queue)
	m.mu.Unlock()

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case d := <-q:
				select {
				case out <- d:
				case <-ctx.Done():
					_ = m.enqueue(context.Background(), q, d)
					return
				case <-m.done:
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

var _ Broker = (*Memory)(nil)
