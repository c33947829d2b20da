package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the pub/sub channel notifications are published on
const DefaultChannel = "jobboard:notifications"

// RedisGateway publishes notifications as JSON on a Redis channel for the
// delivery workers subscribed to it
type RedisGateway struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisGateway creates a Redis gateway
func NewRedisGateway(client redis.UniversalClient, channel string) *RedisGateway {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisGateway{client: client, channel: channel}
}

// Notify publishes n
func (g *RedisGateway) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := g.client.Publish(ctx, g.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}
