package notify_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"dispatch/internal/adapters/out/notify"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisNotifier_Notify(t *testing.T) {
	client := getRedisClient(t)

	t.Run("should publish the event as JSON", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		channel := "dispatch.test." + uuid.NewString()

		sub := client.Subscribe(ctx, channel)
		defer sub.Close()
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		event := assignedEvent()
		require.NoError(t, notify.NewRedisNotifier(client, channel).Notify(ctx, event))

		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)

		var got notify.Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "order.assigned", got.Type)
		assert.Equal(t, event.OrderID.String(), got.OrderID)
		assert.Equal(t, "Auto", got.Attributes["method"])
	})
}
