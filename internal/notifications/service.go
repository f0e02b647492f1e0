package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const KindOrderConfirmation = "order_confirmation"

type statsRefresher interface {
	RefreshStats(ctx context.Context, customerID uuid.UUID) (customers.Stats, error)
}

// Service runs the side effects of a placed order once the checkout
// transaction has committed.
type Service struct {
	repo   Repository
	stats  statsRefresher
	mailer Mailer
	from   string
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, stats statsRefresher, mailer Mailer, from string, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if stats == nil {
		return nil, fmt.Errorf("customer stats refresher required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sender address required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		repo:   repo,
		stats:  stats,
		mailer: mailer,
		from:   from,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// HandleOrderCreated refreshes the buyer's order statistics and sends the
// confirmation email. Both steps run even when the other fails.
func (s *Service) HandleOrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error {
	if event.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}
	ctx = s.logg.WithOrderID(ctx, event.OrderID.String())

	var errs error
	if event.CustomerID != nil {
		stats, err := s.stats.RefreshStats(ctx, *event.CustomerID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("refresh customer stats: %w", err))
		} else {
			s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
				"customer_id":  event.CustomerID.String(),
				"total_orders": stats.TotalOrders,
			}), "customer stats refreshed")
		}
	}
	if err := s.sendConfirmation(ctx, event); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("send confirmation: %w", err))
	}
	return errs
}

func (s *Service) sendConfirmation(ctx context.Context, event payloads.OrderCreatedEvent) error {
	sent, err := s.repo.Sent(ctx, event.OrderID, KindOrderConfirmation)
	if err != nil {
		return err
	}
	if sent {
		s.logg.Info(ctx, "confirmation already sent")
		return nil
	}
	msg := OrderConfirmation(s.from, event)
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	_, err = s.repo.RecordSent(ctx, &models.OrderNotification{
		OrderID:   event.OrderID,
		Kind:      KindOrderConfirmation,
		Recipient: msg.To,
		Subject:   msg.Subject,
		SentAt:    s.now(),
	})
	return err
}
