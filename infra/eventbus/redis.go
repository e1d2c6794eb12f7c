package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/eventbus"
)

const redisChannel = "autoledger:events"

// RedisBus fans events out over Redis pub/sub so several processes share
// one event stream.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]eventbus.HandlerFunc
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisBus{
		client:   client,
		logger:   logger.With("component", "eventbus_redis"),
		handlers: make(map[string][]eventbus.HandlerFunc),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go b.listen(ctx)
	return b
}

func (b *RedisBus) Publish(ctx context.Context, e domain.Event) error {
	raw, err := encodeEnvelope(e)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, redisChannel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *RedisBus) Close() error {
	b.cancel()
	<-b.done
	return nil
}

func (b *RedisBus) listen(ctx context.Context) {
	defer close(b.done)
	sub := b.client.Subscribe(ctx, redisChannel)
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
			b.dispatch(ctx, []byte(msg.Payload))
		}
	}
}

func (b *RedisBus) dispatch(ctx context.Context, raw []byte) {
	e, err := decodeEnvelope(raw)
	if err != nil {
		b.logger.Error("❌ dropping undecodable event", "error", err)
		return
	}
	b.mu.RLock()
	handlers := make([]eventbus.HandlerFunc, len(b.handlers[e.Type()]))
	copy(handlers, b.handlers[e.Type()])
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			b.logger.Error("❌ event handler failed", "event_type", e.Type(), "error", err)
		}
	}
}
