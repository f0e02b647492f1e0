package enums

import "slices"

// CartStatus tracks whether a cart is still mutable, converted into an order, or abandoned.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

var validCartStatusValues = []CartStatus{
	CartStatusActive,
	CartStatusConverted,
	CartStatusAbandoned,
}

// String implements fmt.Stringer.
func (v CartStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CartStatus.
func (v CartStatus) IsValid() bool {
	return slices.Contains(validCartStatusValues, v)
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	return parse(validCartStatusValues, value, "cart status")
}
