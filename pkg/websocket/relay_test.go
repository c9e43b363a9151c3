package websocket

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"mechongo/pkg/cache"
	"mechongo/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRedisRelayForwardsToLocalSubscribers(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)

	prefix := "test_location_" + primitive.NewObjectID().Hex() + ":"
	relay := NewRedisRelay(cache.NewRedisCacheFromClient(client), hub, prefix, logger.NewNop())
	go func() { _ = relay.Run(ctx) }()

	subscriber := &Client{
		topic:  "mechanic-1",
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
		cancel: func() {},
	}
	require.NoError(t, hub.Register(subscriber))

	payload := map[string]float64{"latitude": 1.5, "longitude": 2.5}
	var received []byte
	require.Eventually(t, func() bool {
		require.NoError(t, relay.Broadcast(ctx, "mechanic-1", payload))
		select {
		case received = <-subscriber.send:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)

	var frame map[string]float64
	require.NoError(t, json.Unmarshal(received, &frame))
	assert.Equal(t, 1.5, frame["latitude"])
	assert.Equal(t, prefix+"mechanic-1", relay.Channel("mechanic-1"))
}
