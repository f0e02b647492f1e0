package enums

import "slices"

// AmountType tells whether a discount value is a flat amount or a percentage.
type AmountType string

const (
	AmountFixed      AmountType = "fixed"
	AmountPercentage AmountType = "percentage"
)

var validAmountTypeValues = []AmountType{
	AmountFixed,
	AmountPercentage,
}

// IsValid reports whether the value is a known AmountType.
func (v AmountType) IsValid() bool {
	return slices.Contains(validAmountTypeValues, v)
}

// ParseAmountType converts raw input into a AmountType.
func ParseAmountType(value string) (AmountType, error) {
	return parse(validAmountTypeValues, value, "amount type")
}
