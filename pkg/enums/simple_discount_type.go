package enums

import "slices"

// SimpleDiscountType is the flavor of a simple coupon.
type SimpleDiscountType string

const (
	SimpleDiscountFixed        SimpleDiscountType = "fixed"
	SimpleDiscountPercentage   SimpleDiscountType = "percentage"
	SimpleDiscountFreeShipping SimpleDiscountType = "free_shipping"
)

var validSimpleDiscountTypeValues = []SimpleDiscountType{
	SimpleDiscountFixed,
	SimpleDiscountPercentage,
	SimpleDiscountFreeShipping,
}

// IsValid reports whether the value is a known SimpleDiscountType.
func (v SimpleDiscountType) IsValid() bool {
	return slices.Contains(validSimpleDiscountTypeValues, v)
}

// ParseSimpleDiscountType converts raw input into a SimpleDiscountType.
func ParseSimpleDiscountType(value string) (SimpleDiscountType, error) {
	return parse(validSimpleDiscountTypeValues, value, "simple discount type")
}
