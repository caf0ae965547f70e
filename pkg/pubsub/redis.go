package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"

	"tiyeni/pkg/logger"
)

// RedisBus shares notifications between server instances over Redis
// PUBLISH/SUBSCRIBE.
type RedisBus struct {
	client *redis.Client
	prefix string
	logger *logger.Logger
}

func NewRedisBus(client *redis.Client, prefix string, log *logger.Logger) *RedisBus {
	return &RedisBus{client: client, prefix: prefix, logger: log}
}

func (b *RedisBus) Publish(ctx context.Context, topics ...string) error {
	pipe := b.client.Pipeline()
	for _, topic := range topics {
		pipe.Publish(ctx, b.prefix+topic, "1")
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, b.prefix+topic)
	// Wait for the subscription confirmation so no publish is missed
	// between Subscribe returning and the first receive.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	done := make(chan struct{})
	sub := newSubscription(topic, func() {
		close(done)
		if err := ps.Close(); err != nil {
			b.logger.WithError(err).WithField("topic", topic).Warn("failed to close redis subscription")
		}
	})

	go func() {
		ch := ps.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				sub.signal()
			}
		}
	}()

	return sub, nil
}

func (b *RedisBus) Close() error {
	return nil
}
