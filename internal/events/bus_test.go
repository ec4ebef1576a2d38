package events

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesLocalSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe := bus.Subscribe(ctx)
	defer unsubscribe()

	if err := bus.Publish(ctx, Event{Type: ProcessReady, Data: map[string]interface{}{"pid": 42}}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Type != ProcessReady {
			t.Fatalf("unexpected event type %q", evt.Type)
		}
		if evt.ID == "" || evt.Timestamp.IsZero() {
			t.Fatalf("expected id and timestamp to be filled: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	t.Parallel()

	bus := NewBus(Options{Channel: "test"})
	ctx, cancel := context.WithCancel(context.Background())
	ch, unsubscribe := bus.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription was not closed")
	}
	// a second cancel must not panic on the closed channel
	unsubscribe()
}

func TestFollowRequiresRedis(t *testing.T) {
	t.Parallel()

	if err := NewBus(Options{}).Follow(context.Background()); err == nil {
		t.Fatalf("expected error without redis client")
	}
}

func TestSlowSubscriberDropsOverflow(t *testing.T) {
	t.Parallel()

	bus := NewBus(Options{Backlog: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsubscribe := bus.Subscribe(ctx)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		if err := bus.Publish(ctx, Event{Type: ProcessExited}); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if got := len(ch); got != 2 {
		t.Fatalf("expected 2 buffered events, got %d", got)
	}
}

func TestPublishStampsOrigin(t *testing.T) {
	t.Parallel()

	a, b := NewBus(Options{}), NewBus(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chA, _ := a.Subscribe(ctx)
	chB, _ := b.Subscribe(ctx)

	_ = a.Publish(ctx, Event{Type: ProcessStarting, Origin: "spoofed"})
	_ = b.Publish(ctx, Event{Type: ProcessStarting})
	evtA, evtB := <-chA, <-chB
	if evtA.Origin == "" || evtA.Origin == "spoofed" || evtA.Origin == evtB.Origin {
		t.Fatalf("expected distinct bus origins, got %q and %q", evtA.Origin, evtB.Origin)
	}
}
