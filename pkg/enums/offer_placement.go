package enums

import "slices"

// OfferPlacement is the storefront surface where a cart offer may be shown.
type OfferPlacement string

const (
	PlacementCart         OfferPlacement = "cart"
	PlacementCheckout     OfferPlacement = "checkout"
	PlacementProductPage  OfferPlacement = "product_page"
	PlacementPostCheckout OfferPlacement = "post_checkout"
)

var validOfferPlacementValues = []OfferPlacement{
	PlacementCart,
	PlacementCheckout,
	PlacementProductPage,
	PlacementPostCheckout,
}

// String implements fmt.Stringer.
func (v OfferPlacement) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OfferPlacement.
func (v OfferPlacement) IsValid() bool {
	return slices.Contains(validOfferPlacementValues, v)
}

// ParseOfferPlacement converts raw input into a OfferPlacement.
func ParseOfferPlacement(value string) (OfferPlacement, error) {
	return parse(validOfferPlacementValues, value, "offer placement")
}
