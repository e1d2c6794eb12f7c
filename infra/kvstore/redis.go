package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	redisPrefix  = "autoledger:kv:"
	redisChannel = "autoledger:kv-changes"
)

// RedisStore is a shared observable key-value store. Every write publishes
// the changed key on a pub/sub channel so all processes refresh together.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[string]map[int]func(key string)
	nextID int
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &RedisStore{
		client: client,
		logger: logger.With("component", "kvstore_redis"),
		subs:   make(map[string]map[int]func(key string)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.listen(ctx)
	return s
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, redisPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, redisPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return s.notify(ctx, key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return s.notify(ctx, key)
}

func (s *RedisStore) Subscribe(key string, fn func(key string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(key string))
	}
	id := s.nextID
	s.nextID++
	s.subs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// Close stops the pub/sub listener.
func (s *RedisStore) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *RedisStore) notify(ctx context.Context, key string) error {
	if err := s.client.Publish(ctx, redisChannel, key).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (s *RedisStore) listen(ctx context.Context) {
	defer close(s.done)
	sub := s.client.Subscribe(ctx, redisChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			key := msg.Payload
			s.mu.RLock()
			fns := make([]func(key string), 0, len(s.subs[key]))
			for _, fn := range s.subs[key] {
				fns = append(fns, fn)
			}
			s.mu.RUnlock()
			for _, fn := range fns {
				fn(key)
			}
		}
	}
}
