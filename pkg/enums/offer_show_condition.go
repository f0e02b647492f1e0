package enums

import "slices"

// OfferShowCondition chains offer products on the customer's previous answer.
type OfferShowCondition string

const (
	ShowAlways     OfferShowCondition = "always"
	ShowIfAccepted OfferShowCondition = "if_accepted"
	ShowIfRejected OfferShowCondition = "if_rejected"
)

var validOfferShowConditionValues = []OfferShowCondition{
	ShowAlways,
	ShowIfAccepted,
	ShowIfRejected,
}

// IsValid reports whether the value is a known OfferShowCondition.
func (v OfferShowCondition) IsValid() bool {
	return slices.Contains(validOfferShowConditionValues, v)
}

// ParseOfferShowCondition converts raw input into a OfferShowCondition.
func ParseOfferShowCondition(value string) (OfferShowCondition, error) {
	return parse(validOfferShowConditionValues, value, "show condition")
}
