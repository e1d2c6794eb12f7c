package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgdedup "github.com/ccxiaoji/autoledger/pkg/dedup"
)

const redisPrefix = "autoledger:dedup:"

// RedisStore is a shared dedup store. Expiry is delegated to Redis TTLs, so
// Cleanup is a no-op.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, redisPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) IncrementSource(ctx context.Context, source string, window time.Duration) (int64, error) {
	bucket := time.Now().UnixMilli() / window.Milliseconds()
	key := fmt.Sprintf("%ssrc:%s:%d", redisPrefix, source, bucket)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		// Counter lives two windows so a straddling read never sees a
		// vanished key mid-window.
		if err := s.client.Expire(ctx, key, 2*window).Err(); err != nil {
			return 0, fmt.Errorf("redis expire: %w", err)
		}
	}
	return count, nil
}

func (s *RedisStore) Cleanup(context.Context) (int64, error) { return 0, nil }

func (s *RedisStore) Stats(ctx context.Context) (pkgdedup.Stats, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisPrefix+"*", 1000).Result()
		if err != nil {
			return pkgdedup.Stats{}, fmt.Errorf("redis scan: %w", err)
		}
		total += int64(len(keys))
		if next == 0 {
			return pkgdedup.Stats{Keys: total}, nil
		}
		cursor = next
	}
}
