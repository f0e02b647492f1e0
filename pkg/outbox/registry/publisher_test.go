package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "SF-20260102-000007",
		GrandTotal:  decimal.RequireFromString("42.10"),
	})

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "orders-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.OrderID != orderID || payload.OrderNumber != "SF-20260102-000007" {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryRoutesCartEventsToCartsTopic(t *testing.T) {
	reg := newTestEventRegistry(t)

	cartID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventCartAbandoned,
		AggregateType: enums.AggregateCart,
		AggregateID:   cartID,
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.CartAbandonedEvent{CartID: cartID, Reason: "idle"})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "carts-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
}

func TestEventRegistryRejectsBadRows(t *testing.T) {
	reg := newTestEventRegistry(t)

	tests := []struct {
		name  string
		event models.OutboxEvent
	}{
		{"unknown event type", models.OutboxEvent{
			EventType: enums.OutboxEventType("coupon_redeemed"), AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: mustEnvelope(t, []byte(`{"reason":"none"}`)),
		}},
		{"aggregate mismatch", models.OutboxEvent{
			EventType: enums.EventOrderCreated, AggregateType: enums.AggregateCart,
			AggregateID: uuid.New(), Payload: mustEnvelope(t, []byte(`{"order_number":"x"}`)),
		}},
		{"missing aggregate id", models.OutboxEvent{
			EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder,
			Payload: mustEnvelope(t, []byte(`{}`)),
		}},
		{"null payload", models.OutboxEvent{
			EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder,
			AggregateID: uuid.New(), Payload: mustEnvelope(t, []byte("null")),
		}},
		{"broken envelope", models.OutboxEvent{
			EventType: enums.EventCartAbandoned, AggregateType: enums.AggregateCart,
			AggregateID: uuid.New(), Payload: json.RawMessage(`{"data":`),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Resolve(tc.event)
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("expected non-retryable error, got %v", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"}); err == nil {
		t.Fatalf("expected error when carts topic missing")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		OrdersTopic: "orders-topic",
		CartsTopic:  "carts-topic",
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}

func TestEventRegistryResolveUnknownVersion(t *testing.T) {
	reg := newTestEventRegistry(t)

	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    9,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       []byte(`{"order_number":"SF-1"}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope,
	})
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}
