// Package broker moves JSON messages between the dispatcher, workers and
// the tally over AMQP-style exchanges and queues.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a transport-neutral payload.
type Message struct {
	ID          string
	Body        []byte
	ContentType string
	Headers     map[string]any
	Timestamp   time.Time
	Persistent  bool
}

// Route addresses a publish. An empty Exchange sends straight to the queue
// named by Key.
type Route struct {
	Exchange string
	Key      string
}

// Exchange is an exchange declaration. Kind defaults to "direct".
type Exchange struct {
	Name    string
	Kind    string
	Durable bool
}

// Queue is a queue declaration with its bindings.
type Queue struct {
	Name     string
	Durable  bool
	Bindings []Route
}

// Topology is everything a component needs declared before it runs.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
}

// Delivery is a received message. Handlers must Ack or Nack it.
type Delivery struct {
	Message
	Exchange    string
	RoutingKey  string
	Redelivered bool

	ack  func() error
	nack func(requeue bool) error
}

func (d Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

func (d Delivery) Nack(requeue bool) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(requeue)
}

// Decode unmarshals the delivery body into v.
func (d Delivery) Decode(v any) error {
	if err := json.Unmarshal(d.Body, v); err != nil {
		return fmt.Errorf("decode %s message: %w", d.RoutingKey, err)
	}
	return nil
}

// Broker is the transport contract. Consume's channel closes when ctx is
// cancelled or the broker is closed.
type Broker interface {
	Declare(ctx context.Context, t Topology) error
	Publish(ctx context.Context, r Route, msg Message) error
	Consume(ctx context.Context, queue, consumer string) (<-chan Delivery, error)
	Close() error
}

// PublishJSON encodes v and publishes it as a persistent message.
func PublishJSON(ctx context.Context, b Broker, r Route, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return b.Publish(ctx, r, Message{
		ID:          uuid.NewString(),
		Body:        body,
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Persistent:  true,
	})
}
