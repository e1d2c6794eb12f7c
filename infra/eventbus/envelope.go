package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/domain/events"
)

// envelope is the wire form of an event on the cross-process buses.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(e domain.Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	raw, err := json.Marshal(envelope{Type: e.Type(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return raw, nil
}

func decodeEnvelope(raw []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	return events.Decode(env.Type, env.Payload)
}
