package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSnapshots persists store snapshots as JSON values with a session
// TTL. Keys are namespaced by the stores themselves.
type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshots(client *redis.Client, ttl time.Duration) *RedisSnapshots {
	return &RedisSnapshots{client: client, ttl: ttl}
}

func (r *RedisSnapshots) Write(ctx context.Context, key string, payload any) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Read loads the raw snapshot bytes into *[]byte. A missing key is not an
// error; into is left empty.
func (r *RedisSnapshots) Read(ctx context.Context, key string, into any) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	raw, ok := into.(*[]byte)
	if !ok {
		return fmt.Errorf("snapshot read target must be *[]byte")
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	*raw = val
	return nil
}
