package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/redis/go-redis/v9"
)

// Lifecycle event types emitted by the process supervisor.
const (
	ProcessStarting   = "process.starting"
	ProcessReady      = "process.ready"
	ProcessFailed     = "process.failed"
	ProcessExited     = "process.exited"
	ProcessTerminated = "process.terminated"
)

// Event represents a lifecycle notification.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
	// Origin identifies the publishing bus; Follow skips its own events.
	Origin string `json:"origin,omitempty"`
}

// Bus multiplexes events to local subscribers and, when configured, a Redis channel.
type Bus struct {
	client  redis.UniversalClient
	ch      string
	origin  string
	backlog int

	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// Options configure the bus.
type Options struct {
	Client  redis.UniversalClient
	Channel string
	// Backlog is the per-subscriber buffer; zero means 16.
	Backlog int
}

// NewBus creates a new event bus. A nil Client keeps the bus in-process.
func NewBus(opts Options) *Bus {
	channel := opts.Channel
	if channel == "" {
		channel = "bigbooks-events"
	}
	backlog := opts.Backlog
	if backlog <= 0 {
		backlog = 16
	}
	return &Bus{
		client:      opts.Client,
		ch:          channel,
		origin:      uuid.NewString(),
		backlog:     backlog,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Channel returns the Redis channel name events are published to.
func (b *Bus) Channel() string {
	return b.ch
}

// Publish stamps evt and delivers it to local subscribers, then to Redis. Local
// delivery happens even when the Redis publish fails.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Origin = b.origin
	b.broadcast(evt)

	if b.client == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	if err := b.client.Publish(ctx, b.ch, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", b.ch, err)
	}
	return nil
}

// Subscribe registers a local subscriber. The channel is closed by the returned
// func or when ctx is done, whichever comes first; slow subscribers miss events
// rather than block publishers.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, b.backlog)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
	context.AfterFunc(ctx, unsubscribe)
	return ch, unsubscribe
}

// Follow relays events published by other processes on the Redis channel to
// local subscribers until ctx is done.
func (b *Bus) Follow(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("events: redis client not configured")
	}
	pubsub := b.client.Subscribe(ctx, b.ch)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logutil.Warn("events: redis subscriber error", map[string]interface{}{"error": err.Error()})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			logutil.Warn("events: invalid payload", map[string]interface{}{"error": err.Error()})
			continue
		}
		if evt.Origin == b.origin {
			continue
		}
		b.broadcast(evt)
	}
}

func (b *Bus) broadcast(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			logutil.Debug("events: dropping event (subscriber backlog)", map[string]interface{}{"id": evt.ID, "type": evt.Type})
		}
	}
}
