package registry

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCreated, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.OrderCreatedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"order_number":"SF-20260101-000001","grand_total":"12.50"}`)
	output, err := reg.Decode(enums.EventOrderCreated, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	event, ok := output.(payloads.OrderCreatedEvent)
	if !ok || event.OrderNumber != "SF-20260101-000001" || event.GrandTotal.String() != "12.5" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventOrderCreated, 2, input); err == nil {
		t.Fatalf("expected error for unregistered version")
	}
}

func TestPayloadDecodersCoverPublishedEvents(t *testing.T) {
	reg := NewPayloadDecoders()
	for _, tc := range []struct {
		eventType enums.OutboxEventType
		payload   string
	}{
		{enums.EventOrderCreated, `{"order_number":"SF-1"}`},
		{enums.EventCartAbandoned, `{"reason":"idle"}`},
		{enums.EventCartOfferAccepted, `{}`},
	} {
		if _, err := reg.Decode(tc.eventType, 1, json.RawMessage(tc.payload)); err != nil {
			t.Fatalf("%s: %v", tc.eventType, err)
		}
	}
	if _, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`[`)); err == nil {
		t.Fatal("expected malformed json to fail")
	}
}
