package enums

import "slices"

// OfferTriggerType decides which carts can trigger a cart offer.
type OfferTriggerType string

const (
	TriggerAllProducts        OfferTriggerType = "all_products"
	TriggerSpecificProducts   OfferTriggerType = "specific_products"
	TriggerSpecificCategories OfferTriggerType = "specific_categories"
	TriggerCartTotal          OfferTriggerType = "cart_total"
)

var validOfferTriggerTypeValues = []OfferTriggerType{
	TriggerAllProducts,
	TriggerSpecificProducts,
	TriggerSpecificCategories,
	TriggerCartTotal,
}

// IsValid reports whether the value is a known OfferTriggerType.
func (v OfferTriggerType) IsValid() bool {
	return slices.Contains(validOfferTriggerTypeValues, v)
}

// ParseOfferTriggerType converts raw input into a OfferTriggerType.
func ParseOfferTriggerType(value string) (OfferTriggerType, error) {
	return parse(validOfferTriggerTypeValues, value, "offer trigger type")
}
