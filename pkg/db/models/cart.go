package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Cart belongs to either a customer or a guest session. The money columns are
// derived and rewritten on every recalculation.
type Cart struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID    *uuid.UUID       `gorm:"column:customer_id;type:uuid;index"`
	SessionID     *string          `gorm:"column:session_id;index"`
	Status        enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	CouponID      *uuid.UUID       `gorm:"column:coupon_id;type:uuid"`
	Currency      string           `gorm:"column:currency;not null;default:'USD'"`
	Subtotal      decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	TaxTotal      decimal.Decimal  `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	ShippingTotal decimal.Decimal  `gorm:"column:shipping_total;type:numeric(12,2);not null;default:0"`
	DiscountTotal decimal.Decimal  `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	GrandTotal    decimal.Decimal  `gorm:"column:grand_total;type:numeric(12,2);not null;default:0"`
	ConvertedAt   *time.Time       `gorm:"column:converted_at"`
	Items         []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem snapshots the unit price when the line is created; later catalog
// price changes do not reprice it.
type CartItem struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CartID      uuid.UUID             `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID   uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	Quantity    decimal.Decimal       `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Options     types.SelectedOptions `gorm:"column:options;type:jsonb;not null"`
	CartOfferID *uuid.UUID            `gorm:"column:cart_offer_id;type:uuid"`
	OfferData   *types.OfferData      `gorm:"column:offer_data;type:jsonb;serializer:json"`
	Position    int                   `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Discounted reports whether the line already carries a price reduction.
func (i CartItem) Discounted() bool {
	return i.OfferData != nil && i.OfferData.UnitDiscount.IsPositive()
}
