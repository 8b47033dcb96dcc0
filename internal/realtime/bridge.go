package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipforge/clipforge/internal/render"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 60 * time.Second
)

// Bridge relays Redis progress events to WebSocket subscribers. One
// Redis subscription exists per composition with at least one client;
// it opens on the first subscriber and closes with the last. Sequence
// numbers are assigned per subscription, monotonically.
type Bridge struct {
	client *redis.Client
	hub    *Hub
	log    *slog.Logger

	mu   sync.Mutex
	subs map[string]context.CancelFunc

	// root context bounds every relay goroutine.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBridge(client *redis.Client, hub *Hub, log *slog.Logger) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		client: client,
		hub:    hub,
		log:    log,
		subs:   make(map[string]context.CancelFunc),
		ctx:    ctx,
		cancel: cancel,
	}
	hub.SetSubscriptionHooks(b.open, b.close)
	return b
}

// Shutdown stops every relay.
func (b *Bridge) Shutdown() {
	b.cancel()
	b.mu.Lock()
	b.subs = make(map[string]context.CancelFunc)
	b.mu.Unlock()
}

func (b *Bridge) open(compositionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[compositionID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(b.ctx)
	b.subs[compositionID] = cancel
	go b.relay(ctx, compositionID)
}

func (b *Bridge) close(compositionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.subs[compositionID]; ok {
		cancel()
		delete(b.subs, compositionID)
	}
}

// relay consumes the composition's progress channel until cancelled,
// re-subscribing with exponential backoff when the connection drops.
func (b *Bridge) relay(ctx context.Context, compositionID string) {
	channel := render.ProgressChannel(compositionID)
	log := b.log.With("composition_id", compositionID, "channel", channel)
	backoff := initialBackoff
	var sequence uint64

	for {
		pubsub := b.client.Subscribe(ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			log.Warn("subscribe failed, retrying", "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		log.Debug("subscribed to progress channel")
		backoff = initialBackoff

		// Cancellation must close the PubSub, not just be observed
		// between messages, or the relay blocks on an idle channel
		// and a later resubscribe runs two relays for one channel.
		ch := pubsub.Channel()
	receive:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break receive
				}
				var event render.ProgressEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Warn("dropping malformed progress event", "error", err)
					continue
				}
				sequence++
				b.hub.Broadcast(compositionID, FromEvent(&event, sequence))
			}
		}

		_ = pubsub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("progress channel closed, reconnecting", "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
