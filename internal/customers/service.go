package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Profile is what pricing needs to know about a shopper. Guests get the zero value.
type Profile struct {
	CustomerID    *uuid.UUID
	GroupIDs      []uuid.UUID
	GroupDiscount decimal.Decimal
}

type Service struct {
	tx   txRunner
	repo Repository
	logg *logger.Logger
}

func NewService(tx txRunner, repo Repository, logg *logger.Logger) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{tx: tx, repo: repo, logg: logg}, nil
}

// Profile loads group membership and the best group discount.
func (s *Service) Profile(ctx context.Context, tx *gorm.DB, customerID *uuid.UUID) (Profile, error) {
	if customerID == nil {
		return Profile{GroupDiscount: money.Zero}, nil
	}
	repo := s.repo.WithTx(tx)
	groups, err := repo.GroupIDs(ctx, *customerID)
	if err != nil {
		return Profile{}, err
	}
	discount, err := repo.MaxGroupDiscount(ctx, tx, *customerID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{CustomerID: customerID, GroupIDs: groups, GroupDiscount: discount}, nil
}

// RefreshStats recomputes and stores the lifetime stats from the orders table,
// so replays converge on the same values.
func (s *Service) RefreshStats(ctx context.Context, customerID uuid.UUID) (Stats, error) {
	var stats Stats
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		computed, err := repo.ComputeStats(ctx, customerID)
		if err != nil {
			return err
		}
		if err := repo.SaveStats(ctx, customerID, computed); err != nil {
			return err
		}
		stats = computed
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"customer_id":  customerID.String(),
		"total_orders": stats.TotalOrders,
		"total_spent":  stats.TotalSpent.StringFixed(money.Places),
	}), "customer stats refreshed")
	return stats, nil
}
