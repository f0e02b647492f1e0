// Package coupons evaluates coupon rules against a cart. Evaluate and the
// combination policy are pure; the repository and service feed them
// snapshots and record usage when an order commits.
package coupons

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Line is the coupon view of a cart line.
type Line struct {
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	CategoryIDs []uuid.UUID
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return money.LineAmount(l.UnitPrice, l.Quantity)
}

// Shopper is who is checking out. A nil CustomerID is a guest.
type Shopper struct {
	CustomerID *uuid.UUID
	GroupIDs   []uuid.UUID
	// PriorUses counts committed, non-cancelled orders of this customer that
	// carry the coupon. Only read when a per-customer limit is set.
	PriorUses int
}

// Result is an applicable coupon with its computed discount.
type Result struct {
	Coupon           models.Coupon
	Amount           decimal.Decimal
	FreeShipping     bool
	EligibleSubtotal decimal.Decimal
	// DiscountedUnits is the number of get-set units a bxgy coupon discounted.
	DiscountedUnits int
}

// Rejection explains why a coupon does not apply.
type Rejection struct {
	Reason  enums.CouponRejection
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("coupon rejected (%s): %s", r.Reason, r.Message)
}

func reject(reason enums.CouponRejection, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// Evaluate runs the eligibility checks in order and computes the discount.
// The first failing check decides the rejection reason.
func Evaluate(coupon models.Coupon, lines []Line, shopper Shopper, now time.Time) (Result, *Rejection) {
	if !coupon.IsActive ||
		(coupon.StartDate != nil && now.Before(*coupon.StartDate)) ||
		(coupon.EndDate != nil && now.After(*coupon.EndDate)) {
		return Result{}, reject(enums.CouponExpired, "Coupon has expired or is not active")
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return Result{}, reject(enums.CouponUsageExhausted, "Coupon usage limit has been reached")
	}
	if coupon.UsageLimitPerCustomer != nil && shopper.CustomerID != nil && shopper.PriorUses >= *coupon.UsageLimitPerCustomer {
		return Result{}, reject(enums.CouponUsageExhausted, "You have already used this coupon")
	}

	if !eligibleShopper(coupon, shopper) {
		return Result{}, reject(enums.CouponCustomerIneligible, "Coupon is not available for your account")
	}

	eligible := eligibleLines(coupon, lines)
	if len(eligible) == 0 {
		return Result{}, reject(enums.CouponNotApplicable, "Coupon not applicable to this cart")
	}

	subtotal := money.Zero
	units := money.Zero
	for _, line := range eligible {
		subtotal = subtotal.Add(line.Subtotal())
		units = units.Add(line.Quantity)
	}

	if coupon.MinRequirementValue != nil {
		switch coupon.MinRequirementType {
		case enums.MinRequirementAmount:
			if subtotal.LessThan(*coupon.MinRequirementValue) {
				return Result{}, reject(enums.CouponBelowMinimum,
					fmt.Sprintf("Spend at least %s to use this coupon", coupon.MinRequirementValue.StringFixed(money.Places)))
			}
		case enums.MinRequirementQuantity:
			if units.LessThan(*coupon.MinRequirementValue) {
				return Result{}, reject(enums.CouponBelowMinimum,
					fmt.Sprintf("Add at least %s items to use this coupon", coupon.MinRequirementValue.String()))
			}
		}
	}

	result := Result{Coupon: coupon, EligibleSubtotal: subtotal, Amount: money.Zero}
	switch coupon.DiscountType {
	case enums.CouponDiscountSimple:
		result.Amount, result.FreeShipping = simpleDiscount(coupon, subtotal)
	case enums.CouponDiscountBXGY:
		result.Amount, result.DiscountedUnits = bxgyDiscount(coupon, eligible)
	case enums.CouponDiscountTiered:
		result.Amount = tieredDiscount(coupon, subtotal)
	}
	result.Amount = money.Min(money.NonNegative(result.Amount), subtotal)
	return result, nil
}

func eligibleShopper(coupon models.Coupon, shopper Shopper) bool {
	switch coupon.CustomerEligibility {
	case enums.EligibilitySpecificCustomers:
		return shopper.CustomerID != nil && coupon.CustomerIDs.Contains(*shopper.CustomerID)
	case enums.EligibilitySpecificGroups:
		return shopper.CustomerID != nil && coupon.CustomerGroupIDs.ContainsAny(shopper.GroupIDs)
	default:
		return true
	}
}

func eligibleLines(coupon models.Coupon, lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		switch coupon.AppliesTo {
		case enums.AppliesToSpecificProducts:
			if !coupon.ProductIDs.Contains(line.ProductID) {
				continue
			}
		case enums.AppliesToSpecificCategories:
			if !coupon.CategoryIDs.ContainsAny(line.CategoryIDs) {
				continue
			}
		}
		if coupon.ExcludeProductIDs.Contains(line.ProductID) || coupon.ExcludeCategoryIDs.ContainsAny(line.CategoryIDs) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func simpleDiscount(coupon models.Coupon, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	if coupon.SimpleType == nil {
		return money.Zero, false
	}
	switch *coupon.SimpleType {
	case enums.SimpleDiscountFixed:
		return money.Min(coupon.Value, subtotal), false
	case enums.SimpleDiscountPercentage:
		return money.Percent(subtotal, coupon.Value), false
	case enums.SimpleDiscountFreeShipping:
		return money.Zero, true
	}
	return money.Zero, false
}

func tieredDiscount(coupon models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	tiers := coupon.Tiers.Sorted()
	for i := len(tiers) - 1; i >= 0; i-- {
		tier := tiers[i]
		if tier.MinimumSpend.GreaterThan(subtotal) {
			continue
		}
		if tier.DiscountType == enums.AmountPercentage {
			return money.Percent(subtotal, tier.DiscountValue)
		}
		return money.Min(tier.DiscountValue, subtotal)
	}
	return money.Zero
}

// run is a block of whole units that share a price. order keeps the cart
// line order so equal prices resolve the same way on every evaluation.
type run struct {
	price     decimal.Decimal
	remaining int64
	order     int
}

// bxgyDiscount counts whole units only; the fractional part of a line's
// quantity never completes a group. Each round discounts the cheapest
// remaining get-set units and consumes the most expensive remaining buy-set
// units, so no unit serves two groups. Rounds that stay inside one run are
// applied in bulk, which keeps the cost proportional to the number of lines
// rather than the number of units.
func bxgyDiscount(coupon models.Coupon, lines []Line) (decimal.Decimal, int) {
	if coupon.BuyQuantity == nil || coupon.GetQuantity == nil || coupon.GetDiscountPercentage == nil {
		return money.Zero, 0
	}
	buyQty, getQty := int64(*coupon.BuyQuantity), int64(*coupon.GetQuantity)
	if buyQty <= 0 || getQty <= 0 {
		return money.Zero, 0
	}

	cheapest, priciest := bxgyRuns(lines, coupon.BuyProductIDs, coupon.GetProductIDs)

	discounted := money.Zero
	var count int64
	gi, bi := 0, 0
	for {
		gi, bi = nextRun(cheapest, gi), nextRun(priciest, bi)
		if gi == len(cheapest) || bi == len(priciest) {
			break
		}
		get, buy := cheapest[gi], priciest[bi]

		var rounds int64
		if get == buy {
			rounds = get.remaining / (getQty + buyQty)
		} else {
			rounds = min(get.remaining/getQty, buy.remaining/buyQty)
		}
		if rounds > 0 {
			get.remaining -= rounds * getQty
			buy.remaining -= rounds * buyQty
			discounted = discounted.Add(get.price.Mul(decimal.NewFromInt(rounds * getQty)))
			count += rounds * getQty
			continue
		}

		// The round crosses run boundaries; it exhausts at least one run.
		if available(cheapest[gi:]) < getQty {
			break
		}
		value := drain(cheapest[gi:], getQty)
		if available(priciest[bi:]) < buyQty {
			break
		}
		drain(priciest[bi:], buyQty)
		discounted = discounted.Add(value)
		count += getQty
	}

	return money.Percent(discounted, *coupon.GetDiscountPercentage), int(count)
}

// bxgyRuns groups eligible lines into the get pool (cheapest first) and the
// buy pool (most expensive first). A line in both sets is one shared run.
func bxgyRuns(lines []Line, buyIDs, getIDs dbtypes.UUIDArray) (cheapest, priciest []*run) {
	for i, line := range lines {
		whole := line.Quantity.Floor().IntPart()
		if whole <= 0 {
			continue
		}
		isBuy := len(buyIDs) == 0 || buyIDs.Contains(line.ProductID)
		isGet := len(getIDs) == 0 || getIDs.Contains(line.ProductID)
		if !isBuy && !isGet {
			continue
		}
		r := &run{price: line.UnitPrice, remaining: whole, order: i}
		if isGet {
			cheapest = append(cheapest, r)
		}
		if isBuy {
			priciest = append(priciest, r)
		}
	}
	sort.SliceStable(cheapest, func(a, b int) bool {
		if !cheapest[a].price.Equal(cheapest[b].price) {
			return cheapest[a].price.LessThan(cheapest[b].price)
		}
		return cheapest[a].order < cheapest[b].order
	})
	sort.SliceStable(priciest, func(a, b int) bool {
		if !priciest[a].price.Equal(priciest[b].price) {
			return priciest[a].price.GreaterThan(priciest[b].price)
		}
		return priciest[a].order < priciest[b].order
	})
	return cheapest, priciest
}

func nextRun(pool []*run, i int) int {
	for i < len(pool) && pool[i].remaining == 0 {
		i++
	}
	return i
}

func available(pool []*run) int64 {
	var n int64
	for _, r := range pool {
		n += r.remaining
	}
	return n
}

// drain takes n units in pool order and returns their combined price.
func drain(pool []*run, n int64) decimal.Decimal {
	total := money.Zero
	for _, r := range pool {
		if n == 0 {
			break
		}
		took := min(r.remaining, n)
		r.remaining -= took
		n -= took
		total = total.Add(r.price.Mul(decimal.NewFromInt(took)))
	}
	return total
}

// lessID orders UUIDs by their bytes.
func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
