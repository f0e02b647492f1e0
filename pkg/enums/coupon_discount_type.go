package enums

import "slices"

// CouponDiscountType selects the discount structure a coupon evaluates with.
type CouponDiscountType string

const (
	CouponDiscountSimple CouponDiscountType = "simple"
	CouponDiscountBXGY   CouponDiscountType = "bxgy"
	CouponDiscountTiered CouponDiscountType = "tiered"
)

var validCouponDiscountTypeValues = []CouponDiscountType{
	CouponDiscountSimple,
	CouponDiscountBXGY,
	CouponDiscountTiered,
}

// IsValid reports whether the value is a known CouponDiscountType.
func (v CouponDiscountType) IsValid() bool {
	return slices.Contains(validCouponDiscountTypeValues, v)
}

// ParseCouponDiscountType converts raw input into a CouponDiscountType.
func ParseCouponDiscountType(value string) (CouponDiscountType, error) {
	return parse(validCouponDiscountTypeValues, value, "coupon discount type")
}
