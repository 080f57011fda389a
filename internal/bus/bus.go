package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel names. EventChannel carries domain events from the change-event
// bridge to the dispatcher; LogChannel carries activity log entries to
// live observers.
const (
	EventChannel = "agent_events"
	LogChannel   = "agent_logs"
)

// Event is a domain event as carried on the bus. Only Type is fixed;
// event-specific fields ride in Fields.
type Event struct {
	Type   string
	Fields map[string]any
}

// UnmarshalJSON keeps the flat wire shape {"type": ..., ...} produced by
// the database triggers.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, _ := raw["type"].(string)
	delete(raw, "type")
	e.Type = t
	e.Fields = raw
	return nil
}

// MarshalJSON flattens the event back to {"type": ..., ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		raw[k] = v
	}
	raw["type"] = e.Type
	return json.Marshal(raw)
}

// String returns the string value of an event field, or "" when absent.
func (e *Event) String(key string) string {
	v, _ := e.Fields[key].(string)
	return v
}

// Bus is a Redis-backed pub/sub message bus. Delivery is at-least-once
// with no ordering guarantee; events are not persisted.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New connects to Redis and returns a ready Bus.
func New(redisURL string, logger *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Bus{rdb: rdb, logger: logger}, nil
}

// PublishRaw publishes an already-encoded payload verbatim on a channel.
// The change-event bridge uses this to forward trigger payloads untouched.
func (b *Bus) PublishRaw(ctx context.Context, channel, payload string) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	b.logger.Debug("published message", zap.String("channel", channel))
	return nil
}

// PublishJSON marshals v and publishes it on a channel.
func (b *Bus) PublishJSON(ctx context.Context, channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", channel, err)
	}
	return b.PublishRaw(ctx, channel, string(data))
}

// Subscribe opens a subscription on a channel and delivers each payload
// to fn until ctx is cancelled or the connection drops. A connection drop
// surfaces as an error so the caller's reconnect loop can take over.
func (b *Bus) Subscribe(ctx context.Context, channel string, fn func(payload string)) error {
	pubsub := b.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Fail fast if the subscription never established.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	b.logger.Info("subscribed", zap.String("channel", channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription %s closed", channel)
			}
			fn(msg.Payload)
		}
	}
}

// Close shuts down the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}
