// Package pubsub carries change notifications between writers and live
// subscriptions. Notifications carry no state; subscribers re-read the
// store when woken, so a missed or merged notification never loses data.
package pubsub

import (
	"context"
	"sync"
)

// Bus publishes change notifications on named topics.
type Bus interface {
	Publish(ctx context.Context, topics ...string) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
	Close() error
}

// Subscription delivers at most one pending notification at a time. A
// notification published while one is already pending is merged into it.
type Subscription struct {
	Topic string

	notify    chan struct{}
	closeOnce sync.Once
	onClose   func()
}

func newSubscription(topic string, onClose func()) *Subscription {
	return &Subscription{
		Topic:   topic,
		notify:  make(chan struct{}, 1),
		onClose: onClose,
	}
}

// C returns the notification channel. It is never closed; select on the
// caller's context alongside it.
func (s *Subscription) C() <-chan struct{} {
	return s.notify
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Close detaches the subscription from the bus. It is safe to call more
// than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// Topic names.

func RouteTopic(routeID string) string {
	return "trips.route." + routeID
}

func TripTopic(tripID string) string {
	return "trips." + tripID
}

func BookingsTopic(tripID string) string {
	return "trips." + tripID + ".bookings"
}
