package enums

import "slices"

// ShippingRateType describes how a shipping method prices a shipment.
type ShippingRateType string

const (
	ShippingRateFlat       ShippingRateType = "flat"
	ShippingRatePercentage ShippingRateType = "percentage"
)

var validShippingRateTypeValues = []ShippingRateType{
	ShippingRateFlat,
	ShippingRatePercentage,
}

// IsValid reports whether the value is a known ShippingRateType.
func (v ShippingRateType) IsValid() bool {
	return slices.Contains(validShippingRateTypeValues, v)
}

// ParseShippingRateType converts raw input into a ShippingRateType.
func ParseShippingRateType(value string) (ShippingRateType, error) {
	return parse(validShippingRateTypeValues, value, "shipping rate type")
}
