package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Coupon is a discount rule. A nil Code marks an automatic discount that is
// applied without the shopper entering anything.
type Coupon struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Code         *string                   `gorm:"column:code;uniqueIndex"`
	Name         string                    `gorm:"column:name;not null"`
	DiscountType enums.CouponDiscountType  `gorm:"column:discount_type;type:coupon_discount_type;not null"`
	SimpleType   *enums.SimpleDiscountType `gorm:"column:simple_type;type:simple_discount_type"`
	Value        decimal.Decimal           `gorm:"column:value;type:numeric(12,2);not null;default:0"`

	BuyQuantity           *int              `gorm:"column:buy_quantity"`
	GetQuantity           *int              `gorm:"column:get_quantity"`
	GetDiscountPercentage *decimal.Decimal  `gorm:"column:get_discount_percentage;type:numeric(5,2)"`
	BuyProductIDs         dbtypes.UUIDArray `gorm:"column:buy_product_ids"`
	GetProductIDs         dbtypes.UUIDArray `gorm:"column:get_product_ids"`

	Tiers types.DiscountTiers `gorm:"column:tiers;type:jsonb"`

	AppliesTo          enums.CouponAppliesTo `gorm:"column:applies_to;type:coupon_applies_to;not null;default:'all'"`
	ProductIDs         dbtypes.UUIDArray     `gorm:"column:product_ids"`
	CategoryIDs        dbtypes.UUIDArray     `gorm:"column:category_ids"`
	ExcludeProductIDs  dbtypes.UUIDArray     `gorm:"column:exclude_product_ids"`
	ExcludeCategoryIDs dbtypes.UUIDArray     `gorm:"column:exclude_category_ids"`

	CustomerEligibility enums.CustomerEligibility `gorm:"column:customer_eligibility;type:customer_eligibility;not null;default:'all'"`
	CustomerGroupIDs    dbtypes.UUIDArray         `gorm:"column:customer_group_ids"`
	CustomerIDs         dbtypes.UUIDArray         `gorm:"column:customer_ids"`

	MinRequirementType  enums.MinRequirementType `gorm:"column:min_requirement_type;type:min_requirement_type;not null;default:'none'"`
	MinRequirementValue *decimal.Decimal         `gorm:"column:min_requirement_value;type:numeric(12,2)"`

	UsageLimit            *int `gorm:"column:usage_limit"`
	UsageLimitPerCustomer *int `gorm:"column:usage_limit_per_customer"`
	UsedCount             int  `gorm:"column:used_count;not null;default:0"`

	CanCombineWithOtherCoupons  bool `gorm:"column:can_combine_with_other_coupons;not null;default:false"`
	CanCombineWithAutoDiscounts bool `gorm:"column:can_combine_with_auto_discounts;not null;default:false"`
	Priority                    int  `gorm:"column:priority;not null;default:0"`

	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	StartDate *time.Time `gorm:"column:start_date"`
	EndDate   *time.Time `gorm:"column:end_date"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// IsAutomatic reports whether the coupon applies without a code.
func (c Coupon) IsAutomatic() bool {
	return c.Code == nil || *c.Code == ""
}

// IsFreeShipping reports whether the coupon zeroes the shipping total.
func (c Coupon) IsFreeShipping() bool {
	return c.DiscountType == enums.CouponDiscountSimple &&
		c.SimpleType != nil && *c.SimpleType == enums.SimpleDiscountFreeShipping
}

// CouponUsage is written once per committed order that used a coupon.
type CouponUsage struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CouponID       uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null;uniqueIndex:coupon_usages_order_coupon_key,priority:2"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:coupon_usages_order_coupon_key,priority:1"`
	CustomerID     *uuid.UUID      `gorm:"column:customer_id;type:uuid;index"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (u *CouponUsage) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
