package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeStats struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeStats) RefreshStats(_ context.Context, id uuid.UUID) (customers.Stats, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return customers.Stats{}, f.err
	}
	return customers.Stats{TotalOrders: 1}, nil
}

func orderEvent(customerID *uuid.UUID) payloads.OrderCreatedEvent {
	return payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		OrderNumber:   "SF-20260301-000001",
		CustomerID:    customerID,
		CustomerEmail: "ada@example.com",
		CustomerName:  "Ada Lovelace",
		GrandTotal:    decimal.RequireFromString("45.00"),
		Currency:      "USD",
		ItemCount:     2,
		PlacedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, mailer Mailer, stats statsRefresher) (*Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, stats, mailer, "shop@example.com", logger.Nop())
	require.NoError(t, err)
	return svc, repo
}

func TestHandleOrderCreatedSendsOnce(t *testing.T) {
	mailer := &fakeMailer{}
	stats := &fakeStats{}
	svc, repo := newTestService(t, mailer, stats)
	ctx := context.Background()
	customer := uuid.New()
	event := orderEvent(&customer)

	require.NoError(t, svc.HandleOrderCreated(ctx, event))
	require.NoError(t, svc.HandleOrderCreated(ctx, event))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
	assert.Equal(t, "shop@example.com", mailer.sent[0].From)
	assert.Equal(t, "Order SF-20260301-000001 confirmed", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "45.00 USD")
	assert.Equal(t, []uuid.UUID{customer, customer}, stats.calls)

	sent, err := repo.Sent(ctx, event.OrderID, KindOrderConfirmation)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestHandleOrderCreatedGuestSkipsStats(t *testing.T) {
	mailer := &fakeMailer{}
	stats := &fakeStats{}
	svc, _ := newTestService(t, mailer, stats)

	require.NoError(t, svc.HandleOrderCreated(context.Background(), orderEvent(nil)))
	assert.Empty(t, stats.calls)
	assert.Len(t, mailer.sent, 1)
}

func TestHandleOrderCreatedCombinesFailures(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	stats := &fakeStats{err: errors.New("db down")}
	svc, repo := newTestService(t, mailer, stats)
	customer := uuid.New()
	event := orderEvent(&customer)

	err := svc.HandleOrderCreated(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Contains(t, err.Error(), "smtp down")

	sent, err := repo.Sent(context.Background(), event.OrderID, KindOrderConfirmation)
	require.NoError(t, err)
	assert.False(t, sent, "failed sends are retried on redelivery")
}

func TestRecordSentReportsDuplicate(t *testing.T) {
	_, repo := newTestService(t, &fakeMailer{}, &fakeStats{})
	ctx := context.Background()
	orderID := uuid.New()

	first, err := repo.RecordSent(ctx, notificationFor(orderID))
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.RecordSent(ctx, notificationFor(orderID))
	require.NoError(t, err)
	assert.False(t, second)
}

func notificationFor(orderID uuid.UUID) *models.OrderNotification {
	return &models.OrderNotification{
		OrderID:   orderID,
		Kind:      KindOrderConfirmation,
		Recipient: "ada@example.com",
		Subject:   "Order confirmed",
		SentAt:    time.Now().UTC(),
	}
}

func TestOrderConfirmationFallsBackOnName(t *testing.T) {
	event := orderEvent(nil)
	event.CustomerName = " "
	code := "TENOFF"
	event.CouponCode = &code

	msg := OrderConfirmation("shop@example.com", event)
	assert.Contains(t, msg.Body, "Hi there,")
	assert.Contains(t, msg.Body, "Coupon: TENOFF")
}

func TestLogMailerRequiresRecipient(t *testing.T) {
	mailer := NewLogMailer(nil)
	assert.Error(t, mailer.Send(context.Background(), Message{Subject: "x"}))
	assert.NoError(t, mailer.Send(context.Background(), Message{To: "a@example.com"}))
}
