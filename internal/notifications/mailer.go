package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// Message is a rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured log instead of delivering them.
// It is the default until a mail provider is wired.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient required")
	}
	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"from":    msg.From,
		"to":      msg.To,
		"subject": msg.Subject,
	}), "email sent")
	return nil
}

// OrderConfirmation renders the confirmation email for a new order.
func OrderConfirmation(from string, event payloads.OrderCreatedEvent) Message {
	name := strings.TrimSpace(event.CustomerName)
	if name == "" {
		name = "there"
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", name)
	fmt.Fprintf(&body, "Thanks for your order %s.\n", event.OrderNumber)
	fmt.Fprintf(&body, "Items: %d\n", event.ItemCount)
	fmt.Fprintf(&body, "Total: %s %s\n", event.GrandTotal.StringFixed(2), event.Currency)
	if event.CouponCode != nil {
		fmt.Fprintf(&body, "Coupon: %s\n", *event.CouponCode)
	}
	body.WriteString("\nWe will let you know when it ships.\n")
	return Message{
		From:    from,
		To:      event.CustomerEmail,
		Subject: fmt.Sprintf("Order %s confirmed", event.OrderNumber),
		Body:    body.String(),
	}
}
