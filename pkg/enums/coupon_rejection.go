package enums

import "slices"

// CouponRejection is the user-facing reason a coupon did not apply.
type CouponRejection string

const (
	CouponExpired            CouponRejection = "expired"
	CouponUsageExhausted     CouponRejection = "usage_exhausted"
	CouponCustomerIneligible CouponRejection = "customer_ineligible"
	CouponNotApplicable      CouponRejection = "not_applicable"
	CouponBelowMinimum       CouponRejection = "below_minimum"
)

var validCouponRejectionValues = []CouponRejection{
	CouponExpired,
	CouponUsageExhausted,
	CouponCustomerIneligible,
	CouponNotApplicable,
	CouponBelowMinimum,
}

// String implements fmt.Stringer.
func (v CouponRejection) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CouponRejection.
func (v CouponRejection) IsValid() bool {
	return slices.Contains(validCouponRejectionValues, v)
}

// ParseCouponRejection converts raw input into a CouponRejection.
func ParseCouponRejection(value string) (CouponRejection, error) {
	return parse(validCouponRejectionValues, value, "coupon rejection")
}
