package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"network-analyser/internal/config"
	"network-analyser/internal/telemetry"
)

const redisTimeout = 2 * time.Second

// redisClient is the subset of redis.Cmdable used by the writer.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisWriter stores the latest snapshot under a key with a TTL and
// publishes every snapshot on a channel.
type RedisWriter struct {
	client  redisClient
	closer  func() error
	key     string
	channel string
	ttl     time.Duration
}

// NewRedisWriter creates a writer for the server at cfg.Addr.
func NewRedisWriter(cfg config.Redis) *RedisWriter {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: "",
		DB:       0,
		Protocol: 2,
	})
	return &RedisWriter{
		client:  client,
		closer:  client.Close,
		key:     cfg.Key,
		channel: cfg.Channel,
		ttl:     cfg.TTL,
	}
}

// Write stores and publishes s. An empty channel disables publishing.
func (w *RedisWriter) Write(s telemetry.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := w.client.Set(ctx, w.key, data, w.ttl).Err(); err != nil {
		return err
	}
	if w.channel == "" {
		return nil
	}
	return w.client.Publish(ctx, w.channel, data).Err()
}

// Close releases the connection pool.
func (w *RedisWriter) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer()
}
