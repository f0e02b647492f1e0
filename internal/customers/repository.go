// Package customers reads the shopper data checkout depends on and keeps the
// lifetime order stats current.
package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// GroupDiscountLookup returns the best active group percentage of a customer.
type GroupDiscountLookup interface {
	MaxGroupDiscount(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (decimal.Decimal, error)
}

// Stats is the lifetime summary stored on the customer row.
type Stats struct {
	TotalOrders int
	TotalSpent  decimal.Decimal
	LastOrderAt *time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GroupIDs(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error)
	MaxGroupDiscount(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (decimal.Decimal, error)
	ComputeStats(ctx context.Context, customerID uuid.UUID) (Stats, error)
	SaveStats(ctx context.Context, customerID uuid.UUID, stats Stats) error
}

type repository struct {
	repo.Base
	tx *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base, tx: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.Conn(ctx, r.tx).Where("id = ?", id).Take(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return &customer, nil
}

// GroupIDs lists the active groups the customer belongs to.
func (r *repository) GroupIDs(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.Conn(ctx, r.tx).
		Model(&models.CustomerGroupMember{}).
		Joins("JOIN customer_groups ON customer_groups.id = customer_group_members.customer_group_id").
		Where("customer_group_members.customer_id = ? AND customer_groups.is_active = ?", customerID, true).
		Pluck("customer_group_members.customer_group_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer groups")
	}
	return ids, nil
}

// MaxGroupDiscount takes the maximum across groups, never the sum.
func (r *repository) MaxGroupDiscount(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (decimal.Decimal, error) {
	var groups []models.CustomerGroup
	err := r.Conn(ctx, firstTx(tx, r.tx)).
		Joins("JOIN customer_group_members ON customer_group_members.customer_group_id = customer_groups.id").
		Where("customer_group_members.customer_id = ? AND customer_groups.is_active = ?", customerID, true).
		Find(&groups).Error
	if err != nil {
		return money.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group discount")
	}
	best := money.Zero
	for _, g := range groups {
		best = money.Max(best, g.DiscountPercentage)
	}
	return best, nil
}

// ComputeStats aggregates the customer's non-cancelled orders.
func (r *repository) ComputeStats(ctx context.Context, customerID uuid.UUID) (Stats, error) {
	var orders []models.Order
	err := r.Conn(ctx, r.tx).
		Select("grand_total", "created_at").
		Where("customer_id = ? AND status <> ?", customerID, enums.OrderStatusCancelled).
		Find(&orders).Error
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate customer orders")
	}

	stats := Stats{TotalOrders: len(orders), TotalSpent: money.Zero}
	for _, o := range orders {
		stats.TotalSpent = stats.TotalSpent.Add(o.GrandTotal)
		if stats.LastOrderAt == nil || o.CreatedAt.After(*stats.LastOrderAt) {
			at := o.CreatedAt
			stats.LastOrderAt = &at
		}
	}
	return stats, nil
}

func (r *repository) SaveStats(ctx context.Context, customerID uuid.UUID, stats Stats) error {
	err := r.Conn(ctx, r.tx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"total_orders":  stats.TotalOrders,
			"total_spent":   stats.TotalSpent,
			"last_order_at": stats.LastOrderAt,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save customer stats")
	}
	return nil
}

func firstTx(candidates ...*gorm.DB) *gorm.DB {
	for _, tx := range candidates {
		if tx != nil {
			return tx
		}
	}
	return nil
}
