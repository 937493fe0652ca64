package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrClosed is returned by a closed broker.
var ErrClosed = errors.New("broker is closed")

// RabbitMQConfig holds connection settings.
type RabbitMQConfig struct {
	URL            string
	ConnectionName string
	Heartbeat      time.Duration
	// Prefetch caps unacked deliveries per consumer. Zero means 1.
	Prefetch int
}

// RabbitMQ is a Broker over one AMQP connection. Publishes share a
// channel; every consumer gets its own.
type RabbitMQ struct {
	cfg  RabbitMQConfig
	conn *amqp.Connection

	mu     sync.Mutex
	pub    *amqp.Channel
	closed bool
}

// NewRabbitMQ dials the broker. ctx bounds the dial only.
func NewRabbitMQ(ctx context.Context, cfg RabbitMQConfig) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = 10 * time.Second
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat:  cfg.Heartbeat,
		Locale:     "en_US",
		Properties: amqp.Table{"connection_name": cfg.ConnectionName},
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	return &RabbitMQ{cfg: cfg, conn: conn}, nil
}

func (b *RabbitMQ) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	conn, pub := b.conn, b.pub
	b.pub = nil
	b.mu.Unlock()

	if pub != nil {
		_ = pub.Close()
	}
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

// Declare creates the exchanges, queues and bindings on a throwaway
// channel.
func (b *RabbitMQ) Declare(ctx context.Context, t Topology) error {
	ch, err := b.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, ex := range t.Exchanges {
		kind := ex.Kind
		if kind == "" {
			kind = amqp.ExchangeDirect
		}
		if err := ch.ExchangeDeclare(ex.Name, kind, ex.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %q: %w", ex.Name, err)
		}
	}
	for _, q := range t.Queues {
		if _, err := ch.QueueDeclare(q.Name, q.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %q: %w", q.Name, err)
		}
		for _, bind := range q.Bindings {
			if err := ch.QueueBind(q.Name, bind.Key, bind.Exchange, false, nil); err != nil {
				return fmt.Errorf("bind %q to %s/%s: %w", q.Name, bind.Exchange, bind.Key, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (b *RabbitMQ) Publish(ctx context.Context, r Route, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.conn == nil {
		return ErrClosed
	}
	if b.pub == nil || b.pub.IsClosed() {
		ch, err := b.conn.Channel()
		if err != nil {
			return fmt.Errorf("open publish channel: %w", err)
		}
		b.pub = ch
	}

	p := amqp.Publishing{
		MessageId:   msg.ID,
		Body:        msg.Body,
		ContentType: msg.ContentType,
		Headers:     amqp.Table(msg.Headers),
		Timestamp:   msg.Timestamp,
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	if msg.Persistent {
		p.DeliveryMode = amqp.Persistent
	}
	if err := b.pub.PublishWithContext(ctx, r.Exchange, r.Key, false, false, p); err != nil {
		return fmt.Errorf("publish to %s/%s: %w", r.Exchange, r.Key, err)
	}
	return nil
}

// Consume starts a manual-ack consumer on queue.
func (b *RabbitMQ) Consume(ctx context.Context, queue, consumer string) (<-chan Delivery, error) {
	ch, err := b.channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(b.cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	in, err := ch.ConsumeWithContext(ctx, queue, consumer, false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %q: %w", queue, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- fromAMQP(d):
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *RabbitMQ) channel() (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.conn == nil || b.conn.IsClosed() {
		return nil, ErrClosed
	}
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

func fromAMQP(d amqp.Delivery) Delivery {
	var headers map[string]any
	if len(d.Headers) > 0 {
		headers = map[string]any(d.Headers)
	}
	return Delivery{
		Message: Message{
			ID:          d.MessageId,
			Body:        d.Body,
			ContentType: d.ContentType,
			Headers:     headers,
			Timestamp:   d.Timestamp,
			Persistent:  d.DeliveryMode == amqp.Persistent,
		},
		Exchange:    d.Exchange,
		RoutingKey:  d.RoutingKey,
		Redelivered: d.Redelivered,
		ack:         func() error { return d.Ack(false) },
		nack:        func(requeue bool) error { return d.Nack(false, requeue) },
	}
}

var _ Broker = (*RabbitMQ)(nil)
