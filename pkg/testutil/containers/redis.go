//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer is a throwaway Redis backing the redis blob store tests.
type RedisContainer struct {
	Container testcontainers.Container
	// URL is a redis:// connection string accepted by config REDIS_URL.
	URL    string
	Client *redis.Client
}

// NewRedisContainer starts Redis and returns a connected client.
// Callers normally go through Manager.GetRedis so one instance serves the binary.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	c, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	fail := func(step string, err error) {
		_ = c.Terminate(ctx)
		t.Fatalf("redis %s: %v", step, err)
	}

	url, err := c.ConnectionString(ctx)
	if err != nil {
		fail("connection string", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		fail("parse url", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		fail("ping", err)
	}

	return &RedisContainer{Container: c, URL: url, Client: client}
}

// FlushAll drops every key so each test starts from an empty collection.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
