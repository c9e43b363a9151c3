package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewRedisCacheFromClient(client)
}

func TestAllowSlidingWindow(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	key := "test:sliding:" + primitive.NewObjectID().Hex()
	now := time.Now()

	for i := 0; i < 3; i++ {
		allowed, err := cache.AllowSlidingWindow(ctx, key, 3, time.Minute, now.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d", i)
	}

	allowed, err := cache.AllowSlidingWindow(ctx, key, 3, time.Minute, now.Add(10*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, allowed)

	// Once the first hits fall out of the window there is room again.
	allowed, err = cache.AllowSlidingWindow(ctx, key, 3, time.Minute, now.Add(time.Minute+5*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestPublishReachesPatternSubscriber(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	prefix := "test_pub_" + primitive.NewObjectID().Hex() + ":"

	pubsub := cache.PSubscribe(ctx, prefix+"*")
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Publish(ctx, prefix+"topic", map[string]int{"n": 1}))

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, prefix+"topic", msg.Channel)
		assert.JSONEq(t, `{"n":1}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
}
