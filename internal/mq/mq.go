// Package mq provides a broker-agnostic transport for book events with
// RabbitMQ and Google Cloud Pub/Sub backends. A backend is bound to a single
// channel (queue or topic) chosen at construction.
package mq

import "context"

// Message is a broker-agnostic payload delivered to a subscriber.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes one message. A non-nil error nacks the delivery so the
// broker can redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Backend is the transport used to publish and consume book events.
type Backend interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}
