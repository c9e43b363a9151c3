package websocket

import (
	"context"
	"strings"

	"mechongo/pkg/cache"
	"mechongo/pkg/logger"
)

// RedisRelay fans messages out across instances. Broadcast publishes to
// Redis; Run forwards every message on the prefix to the local hub, so a
// subscriber receives a message once whichever instance accepted it.
type RedisRelay struct {
	redis  *cache.RedisCache
	hub    *Hub
	prefix string
	logger *logger.Logger
}

// NewRedisRelay relays channels named prefix + topic, e.g.
// "mechanic_location:" + mechanic id.
func NewRedisRelay(redis *cache.RedisCache, hub *Hub, prefix string, log *logger.Logger) *RedisRelay {
	return &RedisRelay{
		redis:  redis,
		hub:    hub,
		prefix: prefix,
		logger: log,
	}
}

func (r *RedisRelay) Channel(topic string) string {
	return r.prefix + topic
}

func (r *RedisRelay) Broadcast(ctx context.Context, topic string, payload interface{}) error {
	return r.redis.Publish(ctx, r.Channel(topic), payload)
}

// Run blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.redis.PSubscribe(ctx, r.prefix+"*")
	defer pubsub.Close()

	// Receive confirms the subscription before any message is consumed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	messages := pubsub.Channel()
	r.logger.WithField("pattern", r.prefix+"*").Info("Redis location relay subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			topic := strings.TrimPrefix(msg.Channel, r.prefix)
			if err := r.hub.Publish(ctx, topic, []byte(msg.Payload)); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
