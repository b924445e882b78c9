package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestInitRedisWithPlainAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}

	InitRedis(context.Background())
	if capturedAddr != "redis:9999" {
		t.Fatalf("expected plain addr, got %s", capturedAddr)
	}
}

func TestInitRedisParsesURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:secret@redis-host:6380/2")

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var captured *redis.Options
	newRedisClient = func(opts *redis.Options) *redis.Client {
		captured = opts
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}

	InitRedis(context.Background())
	if captured == nil || captured.Addr != "redis-host:6380" {
		t.Fatalf("expected parsed addr, got %+v", captured)
	}
	if captured.Password != "secret" || captured.DB != 2 {
		t.Fatalf("expected credentials from URL, got %+v", captured)
	}
}
