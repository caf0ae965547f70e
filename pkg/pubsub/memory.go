package pubsub

import (
	"context"
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("pubsub: bus closed")

// MemoryBus fans notifications out inside a single process.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*Subscription]struct{})}
}

func (b *MemoryBus) Publish(_ context.Context, topics ...string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	for _, topic := range topics {
		for sub := range b.subs[topic] {
			sub.signal()
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, topic string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	var sub *Subscription
	sub = newSubscription(topic, func() { b.remove(topic, sub) })

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub, nil
}

func (b *MemoryBus) remove(topic string, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs[topic], sub)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// SubscriberCount reports live subscriptions on topic.
func (b *MemoryBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[*Subscription]struct{})
	return nil
}
