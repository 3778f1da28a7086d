package mq

import (
	"context"
	"fmt"

	"github.com/booknest/apiserver/config"
)

// NewBackend selects and constructs the configured events backend.
// Backend "none" returns nil, which disables publishing.
func NewBackend(ctx context.Context, cfg config.EventsConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		return NewRabbitMQBackend(cfg.RabbitMQ, cfg.Channel)
	case "pubsub":
		return NewPubSubBackend(ctx, cfg.PubSub, cfg.Channel)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
