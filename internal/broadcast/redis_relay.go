package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"clinicq/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRelayRetryBackoff = 500 * time.Millisecond
	maxRelayRetryBackoff     = 30 * time.Second
)

// RedisRelay shares events between API instances over a Redis channel.
// Every instance runs Run, which feeds received events into its local hub, so
// a published event reaches the clients of all instances exactly once.
// Until the subscription is confirmed, Publish also delivers locally.
type RedisRelay struct {
	client       redis.UniversalClient
	channel      string
	hub          *Hub
	log          *logger.Logger
	retryBackoff time.Duration
	subscribed   atomic.Bool
}

// NewRedisRelay creates a relay publishing on channel and delivering into hub
func NewRedisRelay(client redis.UniversalClient, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{
		client:       client,
		channel:      channel,
		hub:          hub,
		log:          logger.GetDefault(),
		retryBackoff: defaultRelayRetryBackoff,
	}
}

// Publish sends the event to every instance. If Redis is unreachable, or this
// instance is not subscribed yet, the event is delivered to local clients
// directly.
func (r *RedisRelay) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.Name, err)
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.LogBroadcastDropped(ctx, event.Name, "redis:"+r.channel, err)
		r.hub.Broadcast(event)
		return nil
	}
	if !r.subscribed.Load() {
		r.hub.Broadcast(event)
	}
	return nil
}

// Subscribed reports whether the relay currently receives from Redis
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// Run keeps a subscription to the relay channel until ctx is cancelled,
// resubscribing with exponential backoff whenever it fails or drops.
func (r *RedisRelay) Run(ctx context.Context) error {
	delay := r.retryBackoff
	for {
		confirmed, err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if confirmed {
			delay = r.retryBackoff
		}
		r.log.Warn("Broadcast relay disconnected, retrying",
			"channel", r.channel,
			"retry_in", delay.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRelayRetryBackoff)
	}
}

// listen runs one subscription. confirmed reports whether Redis acknowledged it.
func (r *RedisRelay) listen(ctx context.Context) (confirmed bool, err error) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	defer r.subscribed.Store(false)

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.subscribed.Store(true)
	r.log.Info("Broadcast relay subscribed", "channel", r.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-messages:
			if !ok {
				return true, fmt.Errorf("subscription to %s closed", r.channel)
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.log.LogBroadcastDropped(ctx, "unknown", "redis:"+r.channel, err)
		return
	}
	r.hub.Broadcast(event)
}
