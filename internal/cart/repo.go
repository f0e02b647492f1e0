package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository defines the persistence surface of the cart aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActive(ctx context.Context, identity Identity, lock bool) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	AddItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty decimal.Decimal) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	SetCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID) error
	SaveTotals(ctx context.Context, cart *models.Cart) error
	MarkStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus, at time.Time) error
	ListIdleGuests(ctx context.Context, idleSince time.Time, limit int) ([]models.Cart, error)
	PurgeClosed(ctx context.Context, before time.Time, limit int) (int64, error)
}

type repository struct {
	repo.Base
	tx *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base, tx: tx}
}

// FindActive returns the owner's active cart with its items in display
// order, or nil when the owner has none yet.
func (r *repository) FindActive(ctx context.Context, identity Identity, lock bool) (*models.Cart, error) {
	conn := r.Conn(ctx, r.tx)
	query := conn
	if lock {
		query = db.ForUpdate(conn)
	}
	if identity.CustomerID != nil {
		query = query.Where("customer_id = ?", *identity.CustomerID)
	} else {
		query = query.Where("session_id = ? AND customer_id IS NULL", strings.TrimSpace(identity.SessionID))
	}

	var cart models.Cart
	err := query.Where("status = ?", enums.CartStatusActive).Order("created_at DESC").Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := r.Conn(ctx, r.tx).
		Where("cart_id = ?", cart.ID).
		Order("position ASC, created_at ASC").
		Find(&cart.Items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.Status == "" {
		cart.Status = enums.CartStatusActive
	}
	if err := r.Conn(ctx, r.tx).Omit("Items").Create(cart).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "active cart already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return nil
}

func (r *repository) AddItem(ctx context.Context, item *models.CartItem) error {
	if err := r.Conn(ctx, r.tx).Create(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty decimal.Decimal) error {
	res := r.Conn(ctx, r.tx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update cart item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := r.Conn(ctx, r.tx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete cart item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (r *repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	if err := r.Conn(ctx, r.tx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	return nil
}

func (r *repository) SetCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID) error {
	err := r.Conn(ctx, r.tx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("coupon_id", couponID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set cart coupon")
	}
	return nil
}

// SaveTotals writes the derived money columns.
func (r *repository) SaveTotals(ctx context.Context, cart *models.Cart) error {
	err := r.Conn(ctx, r.tx).Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"subtotal":       cart.Subtotal,
			"tax_total":      cart.TaxTotal,
			"shipping_total": cart.ShippingTotal,
			"discount_total": cart.DiscountTotal,
			"grand_total":    cart.GrandTotal,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart totals")
	}
	return nil
}

// MarkStatus moves an active cart to converted or abandoned.
func (r *repository) MarkStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus, at time.Time) error {
	updates := map[string]any{"status": status}
	if status == enums.CartStatusConverted {
		updates["converted_at"] = at
	}
	res := r.Conn(ctx, r.tx).Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update cart status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart is no longer active")
	}
	return nil
}

// ListIdleGuests returns active guest carts untouched since idleSince.
func (r *repository) ListIdleGuests(ctx context.Context, idleSince time.Time, limit int) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.Conn(ctx, r.tx).
		Preload("Items").
		Where("status = ? AND customer_id IS NULL AND updated_at < ?", enums.CartStatusActive, idleSince).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list idle carts")
	}
	return carts, nil
}

// PurgeClosed deletes converted and abandoned carts (and their items) last
// touched before the cutoff.
func (r *repository) PurgeClosed(ctx context.Context, before time.Time, limit int) (int64, error) {
	conn := r.Conn(ctx, r.tx)
	var ids []uuid.UUID
	err := conn.Model(&models.Cart{}).
		Where("status IN ? AND updated_at < ?", []enums.CartStatus{enums.CartStatusConverted, enums.CartStatusAbandoned}, before).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list closed carts")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := conn.Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge cart items")
	}
	res := conn.Where("id IN ?", ids).Delete(&models.Cart{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "purge carts")
	}
	return res.RowsAffected, nil
}
