package mq

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/booknest/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubBackend publishes and consumes on a single topic/subscription pair.
type PubSubBackend struct {
	client       *pubsub.Client
	topic        string
	subscription string
}

// NewPubSubBackend constructs a Pub/Sub backend bound to the named topic.
func NewPubSubBackend(ctx context.Context, cfg config.PubSubConfig, topic string) (*PubSubBackend, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}

	return &PubSubBackend{
		client:       client,
		topic:        topic,
		subscription: topic + suffix,
	}, nil
}

// Publish sends a message to the bound topic.
func (p *PubSubBackend) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Subscribe consumes messages from the bound subscription until ctx is cancelled.
func (p *PubSubBackend) Subscribe(ctx context.Context, handler Handler) error {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}

	sub, err := p.ensureSubscription(ctx, topic)
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		message := Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		}
		if err := handler(ctx, message); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the underlying Pub/Sub client.
func (p *PubSubBackend) Close() error {
	return p.client.Close()
}

func (p *PubSubBackend) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, p.topic)
	}
	return topic, nil
}

func (p *PubSubBackend) ensureSubscription(ctx context.Context, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(p.subscription)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateSubscription(ctx, p.subscription, pubsub.SubscriptionConfig{Topic: topic})
	}
	return sub, nil
}
