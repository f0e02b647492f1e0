package enums

import "slices"

// AddressType labels an order address snapshot.
type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
)

var validAddressTypeValues = []AddressType{
	AddressBilling,
	AddressShipping,
}

// IsValid reports whether the value is a known AddressType.
func (v AddressType) IsValid() bool {
	return slices.Contains(validAddressTypeValues, v)
}

// ParseAddressType converts raw input into a AddressType.
func ParseAddressType(value string) (AddressType, error) {
	return parse(validAddressTypeValues, value, "address type")
}
