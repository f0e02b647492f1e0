package enums

import "slices"

// CustomerEligibility restricts which customers may redeem a coupon.
type CustomerEligibility string

const (
	EligibilityAll               CustomerEligibility = "all"
	EligibilitySpecificGroups    CustomerEligibility = "specific_groups"
	EligibilitySpecificCustomers CustomerEligibility = "specific_customers"
)

var validCustomerEligibilityValues = []CustomerEligibility{
	EligibilityAll,
	EligibilitySpecificGroups,
	EligibilitySpecificCustomers,
}

// IsValid reports whether the value is a known CustomerEligibility.
func (v CustomerEligibility) IsValid() bool {
	return slices.Contains(validCustomerEligibilityValues, v)
}

// ParseCustomerEligibility converts raw input into a CustomerEligibility.
func ParseCustomerEligibility(value string) (CustomerEligibility, error) {
	return parse(validCustomerEligibilityValues, value, "customer eligibility")
}
