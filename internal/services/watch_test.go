package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tiyeni/pkg/pubsub"
)

func TestWatchDeliversLatestSnapshot(t *testing.T) {
	bus := pubsub.NewMemoryBus()
	ctx := context.Background()

	var version atomic.Int64
	load := func(context.Context) (int64, error) { return version.Load(), nil }

	watch, err := StartWatch(ctx, bus, "topic", load, nil)
	if err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	defer watch.Close()

	// Publish repeatedly without reading; only the newest value survives.
	for i := 1; i <= 20; i++ {
		version.Store(int64(i))
		_ = bus.Publish(ctx, "topic")
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-watch.Updates():
			if v == 20 {
				return
			}
		case <-deadline:
			t.Fatalf("final snapshot never delivered")
		}
	}
}

func TestWatchCloseIsIdempotent(t *testing.T) {
	bus := pubsub.NewMemoryBus()
	load := func(context.Context) (string, error) { return "x", nil }

	watch, err := StartWatch(context.Background(), bus, "topic", load, nil)
	if err != nil {
		t.Fatalf("StartWatch: %v", err)
	}

	watch.Close()
	watch.Close()

	if n := bus.SubscriberCount("topic"); n != 0 {
		t.Fatalf("subscriber count = %d after close", n)
	}
	for range watch.Updates() {
	}
}

func TestWatchEndsWithContext(t *testing.T) {
	bus := pubsub.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	load := func(context.Context) (int, error) { return 1, nil }

	watch, err := StartWatch(ctx, bus, "topic", load, nil)
	if err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	cancel()

	select {
	case <-watch.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("watch goroutine still running after cancel")
	}
	watch.Close()
}

func TestWatchInitialLoadFailure(t *testing.T) {
	bus := pubsub.NewMemoryBus()
	load := func(context.Context) (int, error) { return 0, errStoreDown }

	if _, err := StartWatch(context.Background(), bus, "topic", load, nil); !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v", err)
	}
	if n := bus.SubscriberCount("topic"); n != 0 {
		t.Fatalf("failed watch left %d subscribers", n)
	}
}
