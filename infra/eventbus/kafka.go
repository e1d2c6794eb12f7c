package eventbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/eventbus"
)

// KafkaConfig locates the event topic.
type KafkaConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

// KafkaBus carries events across a Kafka topic. Messages are keyed by event
// type so one type always lands on one partition, keeping per-type order.
type KafkaBus struct {
	writer *kafka.Writer
	reader *kafka.Reader
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]eventbus.HandlerFunc
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewKafkaBus(cfg KafkaConfig, logger *slog.Logger) *KafkaBus {
	brokers := strings.Split(cfg.Brokers, ",")
	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaBus{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.Hash{},
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.GroupID,
		}),
		logger:   logger.With("component", "eventbus_kafka"),
		handlers: make(map[string][]eventbus.HandlerFunc),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go b.listen(ctx)
	return b
}

func (b *KafkaBus) Publish(ctx context.Context, e domain.Event) error {
	raw, err := encodeEnvelope(e)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Type()),
		Value: raw,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *KafkaBus) Close() error {
	b.cancel()
	<-b.done
	return errors.Join(b.writer.Close(), b.reader.Close())
}

func (b *KafkaBus) listen(ctx context.Context) {
	defer close(b.done)
	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			b.logger.Error("❌ kafka read failed", "error", err)
			continue
		}
		e, err := decodeEnvelope(msg.Value)
		if err != nil {
			b.logger.Error("❌ dropping undecodable event", "error", err)
			continue
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
}
