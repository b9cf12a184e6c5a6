package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/pkg/logger"
)

// DefaultChannel is the Redis channel carrying slot change signals.
const DefaultChannel = "storefront:slot-changes"

type relayMessage struct {
	Topic  string `json:"topic"`
	Origin string `json:"origin"`
}

// RedisRelay carries change signals between processes sharing a backend.
// Like a browser storage event, a relay only delivers changes published by
// other relays; its own publications are dropped on receipt.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	local   *Bus
}

// NewRedisRelay creates a relay over one Redis pub/sub channel.
func NewRedisRelay(client *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   NewBus(),
	}
}

// Origin identifies this relay in published messages.
func (r *RedisRelay) Origin() string {
	return r.origin
}

// Publish announces topic to other processes.
func (r *RedisRelay) Publish(ctx context.Context, topic string) {
	payload, err := json.Marshal(relayMessage{Topic: topic, Origin: r.origin})
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("topic", topic).
			Msg("Failed to relay slot change")
	}
}

// Subscribe registers fn for changes announced by other processes.
func (r *RedisRelay) Subscribe(topic string, fn func()) func() {
	return r.local.Subscribe(topic, fn)
}

// Start subscribes to the channel and delivers remote changes until ctx is
// done. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	logger.Logger.Info().
		Str("channel", r.channel).
		Str("origin", r.origin).
		Msg("Slot change relay started")

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.deliver(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var m relayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil || m.Topic == "" {
		logger.Debug(ctx).Str("payload", payload).Msg("Ignoring malformed relay message")
		return
	}
	if m.Origin == r.origin {
		return
	}
	r.local.Publish(ctx, m.Topic)
}
