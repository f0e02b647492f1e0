package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CartOffer is a placement-scoped upsell shown next to the cart.
type CartOffer struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Name                  string                 `gorm:"column:name;not null"`
	Placement             enums.OfferPlacement   `gorm:"column:placement;type:offer_placement;not null;index"`
	TriggerType           enums.OfferTriggerType `gorm:"column:trigger_type;type:offer_trigger_type;not null"`
	TriggerConfig         types.TriggerConfig    `gorm:"column:trigger_config;type:jsonb;not null"`
	Conditions            types.OfferConditions  `gorm:"column:conditions;type:jsonb;not null"`
	Display               types.OfferDisplay     `gorm:"column:display;type:jsonb;not null"`
	Priority              int                    `gorm:"column:priority;not null;default:0"`
	IsActive              bool                   `gorm:"column:is_active;not null;default:true"`
	StartsAt              *time.Time             `gorm:"column:starts_at"`
	EndsAt                *time.Time             `gorm:"column:ends_at"`
	UsageLimitPerCustomer *int                   `gorm:"column:usage_limit_per_customer"`
	Products              []CartOfferProduct     `gorm:"foreignKey:CartOfferID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *CartOffer) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// CartOfferProduct is one product inside an offer with its own discount.
type CartOfferProduct struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	CartOfferID   uuid.UUID                `gorm:"column:cart_offer_id;type:uuid;not null;index"`
	ProductID     uuid.UUID                `gorm:"column:product_id;type:uuid;not null"`
	VariantID     *uuid.UUID               `gorm:"column:variant_id;type:uuid"`
	DiscountType  enums.AmountType         `gorm:"column:discount_type;type:amount_type;not null"`
	DiscountBase  enums.OfferDiscountBase  `gorm:"column:discount_base;type:offer_discount_base;not null;default:'selling_price'"`
	DiscountValue decimal.Decimal          `gorm:"column:discount_value;type:numeric(12,2);not null"`
	ShowCondition enums.OfferShowCondition `gorm:"column:show_condition;type:offer_show_condition;not null;default:'always'"`
	Position      int                      `gorm:"column:position;not null;default:0"`
	MaxQuantity   *decimal.Decimal         `gorm:"column:max_quantity;type:numeric(12,3)"`
}

func (p *CartOfferProduct) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// CartOfferUsage counts accepts and rejects per offer and shopper. Exactly one
// of CustomerID or SessionID is set.
type CartOfferUsage struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CartOfferID   uuid.UUID  `gorm:"column:cart_offer_id;type:uuid;not null;index"`
	CustomerID    *uuid.UUID `gorm:"column:customer_id;type:uuid"`
	SessionID     *string    `gorm:"column:session_id"`
	UsageCount    int        `gorm:"column:usage_count;not null;default:0"`
	RejectedCount int        `gorm:"column:rejected_count;not null;default:0"`
	LastUsedAt    *time.Time `gorm:"column:last_used_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *CartOfferUsage) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
