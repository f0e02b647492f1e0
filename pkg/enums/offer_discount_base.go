package enums

import "slices"

// OfferDiscountBase is the price an offer discount is computed from.
type OfferDiscountBase string

const (
	DiscountBaseSellingPrice OfferDiscountBase = "selling_price"
	DiscountBaseRegularPrice OfferDiscountBase = "regular_price"
)

var validOfferDiscountBaseValues = []OfferDiscountBase{
	DiscountBaseSellingPrice,
	DiscountBaseRegularPrice,
}

// IsValid reports whether the value is a known OfferDiscountBase.
func (v OfferDiscountBase) IsValid() bool {
	return slices.Contains(validOfferDiscountBaseValues, v)
}

// ParseOfferDiscountBase converts raw input into a OfferDiscountBase.
func ParseOfferDiscountBase(value string) (OfferDiscountBase, error) {
	return parse(validOfferDiscountBaseValues, value, "discount base")
}
