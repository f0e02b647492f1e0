package registry

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type decoderFunc func(payload json.RawMessage) (interface{}, error)

type schemaKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry turns envelope data into the typed payload for an
// (event type, schema version) pair. It is filled at startup and read-only
// afterwards.
type DecoderRegistry struct {
	decoders map[schemaKey]decoderFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: map[schemaKey]decoderFunc{}}
}

// NewPayloadDecoders knows every payload the storefront publishes today.
func NewPayloadDecoders() *DecoderRegistry {
	r := NewDecoderRegistry()
	r.Register(enums.EventOrderCreated, 1, decodeAs[payloads.OrderCreatedEvent])
	r.Register(enums.EventCartAbandoned, 1, decodeAs[payloads.CartAbandonedEvent])
	r.Register(enums.EventCartOfferAccepted, 1, decodeAs[payloads.CartOfferAcceptedEvent])
	return r
}

// Register is not safe to call once Decode is in use.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode decoderFunc) {
	r.decoders[schemaKey{eventType, version}] = decode
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	decode, ok := r.decoders[schemaKey{eventType, version}]
	if !ok {
		return nil, fmt.Errorf("no decoder for %s v%d", eventType, version)
	}
	return decode(payload)
}

// decodeAs returns a *T.
func decodeAs[T any](payload json.RawMessage) (interface{}, error) {
	out := new(T)
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, err
	}
	return out, nil
}
