package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository exposes the checkout-side reads of placed orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.Order, error)
}

type repository struct {
	repo.Base
	tx *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base, tx: tx}
}

// FindByCartID returns the order created from the cart, or nil when the cart
// was never checked out.
func (r *repository) FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.Order, error) {
	if cartID == uuid.Nil {
		return nil, nil
	}
	var order models.Order
	err := r.Conn(ctx, r.tx).Where("cart_id = ?", cartID).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by cart")
	}
	return &order, nil
}
