// Package eventbus provides the bus implementations: in-process, Redis
// pub/sub and Kafka. The cross-process buses carry events as a JSON
// envelope of {type, payload}.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/eventbus"
)

// MemoryBus delivers events synchronously to in-process subscribers.
// Handler errors are logged, not returned to the publisher.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]eventbus.HandlerFunc
	logger   *slog.Logger
}

func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("component", "eventbus_memory"),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, e domain.Event) error {
	b.mu.RLock()
	handlers := make([]eventbus.HandlerFunc, len(b.handlers[e.Type()]))
	copy(handlers, b.handlers[e.Type()])
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			b.logger.Error("❌ event handler failed", "event_type", e.Type(), "error", err)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MemoryBus) Close() error { return nil }
