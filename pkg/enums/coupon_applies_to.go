package enums

import "slices"

// CouponAppliesTo restricts which cart lines a coupon may discount.
type CouponAppliesTo string

const (
	AppliesToAll                CouponAppliesTo = "all"
	AppliesToSpecificProducts   CouponAppliesTo = "specific_products"
	AppliesToSpecificCategories CouponAppliesTo = "specific_categories"
)

var validCouponAppliesToValues = []CouponAppliesTo{
	AppliesToAll,
	AppliesToSpecificProducts,
	AppliesToSpecificCategories,
}

// IsValid reports whether the value is a known CouponAppliesTo.
func (v CouponAppliesTo) IsValid() bool {
	return slices.Contains(validCouponAppliesToValues, v)
}

// ParseCouponAppliesTo converts raw input into a CouponAppliesTo.
func ParseCouponAppliesTo(value string) (CouponAppliesTo, error) {
	return parse(validCouponAppliesToValues, value, "applies_to")
}
