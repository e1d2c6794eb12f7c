// Package eventbus defines the event transport contract. Implementations
// (in-process, Redis, Kafka) live in infra/eventbus.
package eventbus

import (
	"context"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

// HandlerFunc consumes one event. Handler errors are logged by the bus, not
// propagated to the publisher.
type HandlerFunc func(ctx context.Context, e domain.Event) error

// Bus routes events by their Type() name.
type Bus interface {
	Publish(ctx context.Context, e domain.Event) error
	Subscribe(eventType string, handler HandlerFunc)
	// Close stops delivery; in-flight handlers finish first.
	Close() error
}
