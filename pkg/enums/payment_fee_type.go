package enums

import "slices"

// PaymentFeeType describes the surcharge a payment method adds.
type PaymentFeeType string

const (
	PaymentFeeNone       PaymentFeeType = "none"
	PaymentFeeFixed      PaymentFeeType = "fixed"
	PaymentFeePercentage PaymentFeeType = "percentage"
)

var validPaymentFeeTypeValues = []PaymentFeeType{
	PaymentFeeNone,
	PaymentFeeFixed,
	PaymentFeePercentage,
}

// IsValid reports whether the value is a known PaymentFeeType.
func (v PaymentFeeType) IsValid() bool {
	return slices.Contains(validPaymentFeeTypeValues, v)
}

// ParsePaymentFeeType converts raw input into a PaymentFeeType.
func ParsePaymentFeeType(value string) (PaymentFeeType, error) {
	return parse(validPaymentFeeTypeValues, value, "payment fee type")
}
