package types

import (
	"database/sql/driver"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// DiscountTier is one step of a tiered coupon.
type DiscountTier struct {
	MinimumSpend  decimal.Decimal  `json:"minimum_spend"`
	DiscountType  enums.AmountType `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
}

// DiscountTiers is persisted as JSON on the coupon row.
type DiscountTiers []DiscountTier

// Validate rejects malformed tiers at the boundary.
func (t DiscountTiers) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("tiers: at least one tier is required")
	}
	for i, tier := range t {
		if tier.MinimumSpend.IsNegative() {
			return fmt.Errorf("tiers[%d]: minimum spend must not be negative", i)
		}
		if !tier.DiscountType.IsValid() {
			return fmt.Errorf("tiers[%d]: invalid discount type %q", i, tier.DiscountType)
		}
		if !tier.DiscountValue.IsPositive() {
			return fmt.Errorf("tiers[%d]: discount value must be positive", i)
		}
		if tier.DiscountType == enums.AmountPercentage && tier.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("tiers[%d]: percentage above 100", i)
		}
	}
	return nil
}

// Sorted returns a copy ordered by ascending minimum spend.
func (t DiscountTiers) Sorted() DiscountTiers {
	out := make(DiscountTiers, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinimumSpend.LessThan(out[j].MinimumSpend)
	})
	return out
}

// Value serializes the tiers to JSON.
func (t DiscountTiers) Value() (driver.Value, error) {
	if t == nil {
		return jsonValue(DiscountTiers{})
	}
	return jsonValue(t)
}

// Scan decodes the JSON tiers column.
func (t *DiscountTiers) Scan(value interface{}) error {
	*t = DiscountTiers{}
	return scanJSON(value, t)
}
