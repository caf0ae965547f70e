package services

import (
	"context"
	"sync"

	"tiyeni/pkg/logger"
	"tiyeni/pkg/pubsub"
)

// Watch pushes full snapshots of a query result: one immediately, then one
// after every change notification on its topic. A consumer that falls
// behind only ever sees the newest snapshot.
type Watch[T any] struct {
	updates   chan T
	cancel    context.CancelFunc
	sub       *pubsub.Subscription
	done      chan struct{}
	closeOnce sync.Once
}

// Updates is closed after Close or when the parent context ends.
func (w *Watch[T]) Updates() <-chan T {
	return w.updates
}

// Close releases the subscription and waits for its goroutine to exit. It
// is safe to call more than once.
func (w *Watch[T]) Close() {
	w.closeOnce.Do(func() {
		w.cancel()
		w.sub.Close()
	})
	<-w.done
}

// StartWatch subscribes to topic before the first load so no change between
// the two is missed. load runs again after every notification.
func StartWatch[T any](
	ctx context.Context,
	bus pubsub.Bus,
	topic string,
	load func(ctx context.Context) (T, error),
	log *logger.Logger,
) (*Watch[T], error) {
	if log == nil {
		log = logger.NewNop()
	}
	sub, err := bus.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	initial, err := load(ctx)
	if err != nil {
		sub.Close()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watch[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
		sub:     sub,
		done:    make(chan struct{}),
	}
	w.updates <- initial

	go func() {
		defer close(w.done)
		defer close(w.updates)
		defer sub.Close()

		for {
			select {
			case <-watchCtx.Done():
				return
			case <-sub.C():
			}

			snapshot, err := load(watchCtx)
			if err != nil {
				if watchCtx.Err() != nil {
					return
				}
				// The next notification retries the load.
				log.WithError(err).WithField("topic", topic).Warn("failed to refresh subscription snapshot")
				continue
			}
			w.replace(snapshot)
		}
	}()

	return w, nil
}

// replace swaps any undelivered snapshot for the newer one. Only the watch
// goroutine sends, so the send after draining cannot block.
func (w *Watch[T]) replace(snapshot T) {
	select {
	case <-w.updates:
	default:
	}
	w.updates <- snapshot
}
