package events

import (
	"encoding/json"
	"fmt"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

// EventRawNotification carries captured device notifications into the
// pipeline.
const EventRawNotification = "autoledger.raw_notification"

// RawNotification wraps one captured notification for bus transport.
type RawNotification struct {
	Event domain.RawEvent `json:"event"`
}

func (RawNotification) Type() string { return EventRawNotification }

// Decode rebuilds a typed event from a transport envelope payload. Used by
// the bus implementations that cross process boundaries.
func Decode(eventType string, payload []byte) (domain.Event, error) {
	var e domain.Event
	switch eventType {
	case EventRawNotification:
		e = &RawNotification{}
	case EventTransactionCreated:
		e = &TransactionCreated{}
	case EventConfirmationRequired:
		e = &ConfirmationRequired{}
	case EventManualConfirmed:
		e = &ManualConfirmed{}
	case EventSkipped:
		e = &Skipped{}
	case EventParseFailed:
		e = &ParseFailed{}
	case EventProcessingFailed:
		e = &ProcessingFailed{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err := json.Unmarshal(payload, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return e, nil
}
