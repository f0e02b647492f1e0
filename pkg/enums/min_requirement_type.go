package enums

import "slices"

// MinRequirementType is the kind of threshold a coupon requires before it applies.
type MinRequirementType string

const (
	MinRequirementNone     MinRequirementType = "none"
	MinRequirementAmount   MinRequirementType = "amount"
	MinRequirementQuantity MinRequirementType = "quantity"
)

var validMinRequirementTypeValues = []MinRequirementType{
	MinRequirementNone,
	MinRequirementAmount,
	MinRequirementQuantity,
}

// IsValid reports whether the value is a known MinRequirementType.
func (v MinRequirementType) IsValid() bool {
	return slices.Contains(validMinRequirementTypeValues, v)
}

// ParseMinRequirementType converts raw input into a MinRequirementType.
func ParseMinRequirementType(value string) (MinRequirementType, error) {
	return parse(validMinRequirementTypeValues, value, "minimum requirement type")
}
