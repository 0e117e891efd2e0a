package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrBrokerClosed is returned by Publish after Close.
var ErrBrokerClosed = errors.New("relay broker closed")

// Broker carries room events to every hub that may hold members of the room.
// Start registers the delivery callback; Publish hands an envelope to all
// started hubs, including the publishing one.
type Broker interface {
	Start(ctx context.Context, deliver func(Envelope)) error
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// LocalBroker delivers in-process and synchronously. Single-instance only.
type LocalBroker struct {
	mu      sync.RWMutex
	deliver func(Envelope)
	closed  bool
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Start(_ context.Context, deliver func(Envelope)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliver = deliver
	return nil
}

func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	deliver, closed := b.deliver, b.closed
	b.mu.RUnlock()

	if closed {
		return ErrBrokerClosed
	}
	if deliver != nil {
		deliver(env)
	}
	return nil
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.deliver = nil
	return nil
}

// RedisBroker fans room events out through a Redis pub/sub channel, so every
// server instance subscribed to the channel delivers to its own connections.
type RedisBroker struct {
	client  *redis.Client
	channel string
	log     *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisBroker(client *redis.Client, channel string, log *slog.Logger) *RedisBroker {
	return &RedisBroker{client: client, channel: channel, log: log}
}

// Start subscribes and waits for the subscription to be confirmed before
// returning, so envelopes published afterwards are not missed.
func (b *RedisBroker) Start(ctx context.Context, deliver func(Envelope)) error {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.pubsub = ps
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("dropping malformed relay envelope", "err", err)
				continue
			}
			deliver(env)
		}
	}()
	return nil
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Close unsubscribes and waits for the delivery loop to drain.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	ps, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}
