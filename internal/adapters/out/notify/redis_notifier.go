package notify

import (
	"context"
	"fmt"

	"dispatch/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisChannel = "dispatch.events"

// RedisNotifier publishes events as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, event ports.Event) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, n.channel, err)
	}
	return nil
}
