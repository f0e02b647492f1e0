package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type eventGuard interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type orderHandler interface {
	HandleOrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error
}

// Consumer listens on the orders subscription and hands order_created events
// to the notification service.
type Consumer struct {
	handler      orderHandler
	subscription *pubsub.Subscriber
	idempotency  eventGuard
	logg         *logger.Logger
}

func NewConsumer(handler orderHandler, subscription *pubsub.Subscriber, guard eventGuard, logg *logger.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("order handler required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		handler:      handler,
		subscription: subscription,
		idempotency:  guard,
		logg:         logg,
	}, nil
}

// Run receives messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed messages are
// acked so they do not loop.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderCreated) {
		c.logg.Debug(logCtx, "skipping non-order event")
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}

	var event payloads.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return true
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":     eventID.String(),
		"order_number": event.OrderNumber,
	})

	already, err := c.idempotency.Claim(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	if err := c.handler.HandleOrderCreated(logCtx, event); err != nil {
		c.logg.Error(logCtx, "order notification failed", err)
		if delErr := c.idempotency.Release(ctx, orderNotificationConsumer, eventID); delErr != nil {
			c.logg.Warn(c.logg.WithField(logCtx, "cleanup_error", delErr.Error()), "idempotency key not released")
		}
		return false
	}
	c.logg.Info(logCtx, "order notification processed")
	return true
}
