package probe

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/hazz-dev/readygate/internal/readiness"
)

// NewRedis probes a Redis server at host:port with a PING command.
func NewRedis(addr string) readiness.Probe {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// NewRedisClient probes an existing client.
func NewRedisClient(client redis.UniversalClient) readiness.Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
