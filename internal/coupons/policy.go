package coupons

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// SelectAutomatic picks the automatic discount that applies: highest
// priority first, then the lowest id so the choice never depends on load order.
func SelectAutomatic(candidates []Result) *Result {
	var best *Result
	for i := range candidates {
		c := &candidates[i]
		if best == nil ||
			c.Coupon.Priority > best.Coupon.Priority ||
			(c.Coupon.Priority == best.Coupon.Priority && lessID(c.Coupon.ID, best.Coupon.ID)) {
			best = c
		}
	}
	return best
}

// CanCombine reports whether an automatic discount may stack on the code
// coupon. Both sides have to allow it: the code coupon through
// can_combine_with_auto_discounts and the automatic one through
// can_combine_with_other_coupons.
func CanCombine(code, automatic Result) bool {
	return code.Coupon.CanCombineWithAutoDiscounts && automatic.Coupon.CanCombineWithOtherCoupons
}

// Applied is the final set of coupons for a cart.
type Applied struct {
	Code      *Result
	Automatic *Result
}

// Combine applies the policy: one code coupon at most, plus the best
// automatic discount when stacking is allowed or no code coupon is present.
func Combine(code *Result, automatics []Result) Applied {
	auto := SelectAutomatic(automatics)
	switch {
	case code == nil:
		return Applied{Automatic: auto}
	case auto == nil || !CanCombine(*code, *auto):
		return Applied{Code: code}
	default:
		return Applied{Code: code, Automatic: auto}
	}
}

// Results lists the applied coupons, code coupon first.
func (a Applied) Results() []Result {
	out := make([]Result, 0, 2)
	if a.Code != nil {
		out = append(out, *a.Code)
	}
	if a.Automatic != nil {
		out = append(out, *a.Automatic)
	}
	return out
}

// Discount is the summed coupon discount.
func (a Applied) Discount() decimal.Decimal {
	total := money.Zero
	for _, r := range a.Results() {
		total = total.Add(r.Amount)
	}
	return total
}

// Cap clips the applied amounts, code coupon first, so they add up to at most
// total. Pricing caps the summed discount at the goods value; usage rows are
// written from the capped result so they match the order.
func (a Applied) Cap(total decimal.Decimal) Applied {
	left := money.NonNegative(total)
	clip := func(r *Result) *Result {
		if r == nil {
			return nil
		}
		c := *r
		c.Amount = money.Min(c.Amount, left)
		left = left.Sub(c.Amount)
		return &c
	}
	return Applied{Code: clip(a.Code), Automatic: clip(a.Automatic)}
}

// FreeShipping reports whether any applied coupon zeroes shipping.
func (a Applied) FreeShipping() bool {
	for _, r := range a.Results() {
		if r.FreeShipping {
			return true
		}
	}
	return false
}

// Primary is the coupon recorded on the order: the code coupon when present.
func (a Applied) Primary() *Result {
	if a.Code != nil {
		return a.Code
	}
	return a.Automatic
}
