package coupons

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func simple(kind enums.SimpleDiscountType, value string) models.Coupon {
	return models.Coupon{
		ID:                  uuid.New(),
		Code:                ptr("SAVE"),
		DiscountType:        enums.CouponDiscountSimple,
		SimpleType:          &kind,
		Value:               dec(value),
		AppliesTo:           enums.AppliesToAll,
		CustomerEligibility: enums.EligibilityAll,
		MinRequirementType:  enums.MinRequirementNone,
		IsActive:            true,
	}
}

func line(price, qty string) Line {
	return Line{ProductID: uuid.New(), UnitPrice: dec(price), Quantity: dec(qty)}
}

func TestEvaluateSimpleDiscounts(t *testing.T) {
	lines := []Line{line("20", "2"), line("5.55", "1")}

	tests := []struct {
		name     string
		coupon   models.Coupon
		amount   string
		freeShip bool
	}{
		{"fixed", simple(enums.SimpleDiscountFixed, "10"), "10", false},
		{"fixed capped at subtotal", simple(enums.SimpleDiscountFixed, "100"), "45.55", false},
		{"percentage rounds half up", simple(enums.SimpleDiscountPercentage, "15"), "6.83", false},
		{"free shipping", simple(enums.SimpleDiscountFreeShipping, "99"), "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rej := Evaluate(tt.coupon, lines, Shopper{}, now)
			require.Nil(t, rej)
			assert.True(t, res.Amount.Equal(dec(tt.amount)), "got %s", res.Amount)
			assert.Equal(t, tt.freeShip, res.FreeShipping)
		})
	}
}

func TestEvaluateRejectionsInOrder(t *testing.T) {
	customer := uuid.New()
	lines := []Line{line("10", "1")}

	expired := simple(enums.SimpleDiscountFixed, "5")
	expired.EndDate = ptr(now.Add(-time.Hour))
	// also exhausted, but the window check runs first
	expired.UsageLimit = ptr(1)
	expired.UsedCount = 1

	notStarted := simple(enums.SimpleDiscountFixed, "5")
	notStarted.StartDate = ptr(now.Add(time.Hour))

	inactive := simple(enums.SimpleDiscountFixed, "5")
	inactive.IsActive = false

	exhausted := simple(enums.SimpleDiscountFixed, "5")
	exhausted.UsageLimit = ptr(3)
	exhausted.UsedCount = 3

	perCustomer := simple(enums.SimpleDiscountFixed, "5")
	perCustomer.UsageLimitPerCustomer = ptr(1)

	groupOnly := simple(enums.SimpleDiscountFixed, "5")
	groupOnly.CustomerEligibility = enums.EligibilitySpecificGroups
	groupOnly.CustomerGroupIDs = dbtypes.UUIDArray{uuid.New()}

	customersOnly := simple(enums.SimpleDiscountFixed, "5")
	customersOnly.CustomerEligibility = enums.EligibilitySpecificCustomers
	customersOnly.CustomerIDs = dbtypes.UUIDArray{uuid.New()}

	otherProducts := simple(enums.SimpleDiscountFixed, "5")
	otherProducts.AppliesTo = enums.AppliesToSpecificProducts
	otherProducts.ProductIDs = dbtypes.UUIDArray{uuid.New()}

	minimum := simple(enums.SimpleDiscountFixed, "5")
	minimum.MinRequirementType = enums.MinRequirementAmount
	minimum.MinRequirementValue = ptr(dec("10.01"))

	minQty := simple(enums.SimpleDiscountFixed, "5")
	minQty.MinRequirementType = enums.MinRequirementQuantity
	minQty.MinRequirementValue = ptr(dec("2"))

	tests := []struct {
		name    string
		coupon  models.Coupon
		shopper Shopper
		reason  enums.CouponRejection
	}{
		{"expired", expired, Shopper{}, enums.CouponExpired},
		{"not started", notStarted, Shopper{}, enums.CouponExpired},
		{"inactive", inactive, Shopper{}, enums.CouponExpired},
		{"global limit", exhausted, Shopper{}, enums.CouponUsageExhausted},
		{"per customer limit", perCustomer, Shopper{CustomerID: &customer, PriorUses: 1}, enums.CouponUsageExhausted},
		{"guest not in group", groupOnly, Shopper{}, enums.CouponCustomerIneligible},
		{"customer not in group", groupOnly, Shopper{CustomerID: &customer, GroupIDs: []uuid.UUID{uuid.New()}}, enums.CouponCustomerIneligible},
		{"customer not listed", customersOnly, Shopper{CustomerID: &customer}, enums.CouponCustomerIneligible},
		{"no eligible line", otherProducts, Shopper{}, enums.CouponNotApplicable},
		{"below amount", minimum, Shopper{}, enums.CouponBelowMinimum},
		{"below quantity", minQty, Shopper{}, enums.CouponBelowMinimum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rej := Evaluate(tt.coupon, lines, tt.shopper, now)
			require.NotNil(t, rej)
			assert.Equal(t, tt.reason, rej.Reason)
			assert.NotEmpty(t, rej.Message)
		})
	}
}

func TestEvaluatePerCustomerLimitAllowsFirstUse(t *testing.T) {
	customer := uuid.New()
	c := simple(enums.SimpleDiscountFixed, "5")
	c.UsageLimitPerCustomer = ptr(1)

	_, rej := Evaluate(c, []Line{line("10", "1")}, Shopper{CustomerID: &customer}, now)
	assert.Nil(t, rej)
}

func TestEvaluateScopeAndExclusions(t *testing.T) {
	shoes := uuid.New()
	sale := uuid.New()
	a := Line{ProductID: uuid.New(), CategoryIDs: []uuid.UUID{shoes}, UnitPrice: dec("40"), Quantity: dec("1")}
	b := Line{ProductID: uuid.New(), CategoryIDs: []uuid.UUID{shoes, sale}, UnitPrice: dec("60"), Quantity: dec("1")}
	c := Line{ProductID: uuid.New(), UnitPrice: dec("100"), Quantity: dec("1")}

	coupon := simple(enums.SimpleDiscountPercentage, "10")
	coupon.AppliesTo = enums.AppliesToSpecificCategories
	coupon.CategoryIDs = dbtypes.UUIDArray{shoes}
	coupon.ExcludeCategoryIDs = dbtypes.UUIDArray{sale}

	res, rej := Evaluate(coupon, []Line{a, b, c}, Shopper{}, now)
	require.Nil(t, rej)
	assert.True(t, res.EligibleSubtotal.Equal(dec("40")))
	assert.True(t, res.Amount.Equal(dec("4")))

	coupon.AppliesTo = enums.AppliesToAll
	coupon.ExcludeProductIDs = dbtypes.UUIDArray{c.ProductID}
	res, rej = Evaluate(coupon, []Line{a, b, c}, Shopper{}, now)
	require.Nil(t, rej)
	assert.True(t, res.EligibleSubtotal.Equal(dec("40")), "sale category stays excluded")
}

func bxgy(buy, get int, pct string) models.Coupon {
	return models.Coupon{
		ID:                    uuid.New(),
		Code:                  ptr("B2G1"),
		DiscountType:          enums.CouponDiscountBXGY,
		BuyQuantity:           &buy,
		GetQuantity:           &get,
		GetDiscountPercentage: ptr(dec(pct)),
		AppliesTo:             enums.AppliesToAll,
		CustomerEligibility:   enums.EligibilityAll,
		MinRequirementType:    enums.MinRequirementNone,
		IsActive:              true,
	}
}

func TestBXGYBuyTwoGetOneFree(t *testing.T) {
	c := bxgy(2, 1, "100")

	res, rej := Evaluate(c, []Line{line("12", "3")}, Shopper{}, now)
	require.Nil(t, rej)
	assert.True(t, res.Amount.Equal(dec("12")), "exactly one unit free, got %s", res.Amount)
	assert.Equal(t, 1, res.DiscountedUnits)

	res, rej = Evaluate(c, []Line{line("12", "2")}, Shopper{}, now)
	require.Nil(t, rej)
	assert.True(t, res.Amount.IsZero(), "incomplete group yields nothing")
	assert.Equal(t, 0, res.DiscountedUnits)
}

func TestBXGYDiscountsCheapestGetUnitsWithoutReuse(t *testing.T) {
	c := bxgy(2, 1, "50")
	lines := []Line{line("30", "2"), line("10", "2"), line("20", "2")}

	res, rej := Evaluate(c, lines, Shopper{}, now)
	require.Nil(t, rej)
	// 6 units make two groups; the two cheapest units (10, 10) are discounted at 50%.
	assert.Equal(t, 2, res.DiscountedUnits)
	assert.True(t, res.Amount.Equal(dec("10")), "got %s", res.Amount)
}

func TestBXGYRestrictedSets(t *testing.T) {
	buy := line("50", "2")
	get := line("8", "3")
	other := line("1", "10")

	c := bxgy(2, 1, "100")
	c.BuyProductIDs = dbtypes.UUIDArray{buy.ProductID}
	c.GetProductIDs = dbtypes.UUIDArray{get.ProductID}

	res, rej := Evaluate(c, []Line{buy, get, other}, Shopper{}, now)
	require.Nil(t, rej)
	assert.Equal(t, 1, res.DiscountedUnits)
	assert.True(t, res.Amount.Equal(dec("8")))
}

func TestBXGYGroupsSpanLines(t *testing.T) {
	c := bxgy(2, 1, "100")

	res, rej := Evaluate(c, []Line{line("10", "1"), line("20", "1"), line("30", "1")}, Shopper{}, now)
	require.Nil(t, rej)
	assert.Equal(t, 1, res.DiscountedUnits)
	assert.True(t, res.Amount.Equal(dec("10")), "got %s", res.Amount)

	// 9s are consumed as the first buy pair, the 5s cover the remaining groups.
	res, rej = Evaluate(c, []Line{line("5", "7"), line("9", "2")}, Shopper{}, now)
	require.Nil(t, rej)
	assert.Equal(t, 3, res.DiscountedUnits)
	assert.True(t, res.Amount.Equal(dec("15")), "got %s", res.Amount)
}

func TestBXGYLargeQuantityStaysFast(t *testing.T) {
	c := bxgy(2, 1, "100")

	start := time.Now()
	res, rej := Evaluate(c, []Line{line("2", "5000000"), line("3", "1000001")}, Shopper{}, now)
	elapsed := time.Since(start)

	require.Nil(t, rej)
	assert.Less(t, elapsed, time.Second)
	// 6,000,001 units make 2,000,000 groups; every free unit is a 2.
	assert.Equal(t, 2000000, res.DiscountedUnits)
	assert.True(t, res.Amount.Equal(dec("4000000")), "got %s", res.Amount)
}

func TestBXGYIgnoresFractionalUnits(t *testing.T) {
	res, rej := Evaluate(bxgy(2, 1, "100"), []Line{line("4", "2.9")}, Shopper{}, now)
	require.Nil(t, rej)
	assert.True(t, res.Amount.IsZero())
}

func TestTieredPicksHighestReachedTier(t *testing.T) {
	c := models.Coupon{
		ID:           uuid.New(),
		DiscountType: enums.CouponDiscountTiered,
		Tiers: types.DiscountTiers{
			{MinimumSpend: dec("200"), DiscountType: enums.AmountPercentage, DiscountValue: dec("15")},
			{MinimumSpend: dec("50"), DiscountType: enums.AmountFixed, DiscountValue: dec("5")},
			{MinimumSpend: dec("100"), DiscountType: enums.AmountPercentage, DiscountValue: dec("10")},
		},
		AppliesTo:           enums.AppliesToAll,
		CustomerEligibility: enums.EligibilityAll,
		MinRequirementType:  enums.MinRequirementNone,
		IsActive:            true,
	}

	cases := map[string]string{"40": "0", "50": "5", "99.99": "5", "150": "15", "200": "30"}
	for subtotal, want := range cases {
		res, rej := Evaluate(c, []Line{line(subtotal, "1")}, Shopper{}, now)
		require.Nil(t, rej)
		assert.True(t, res.Amount.Equal(dec(want)), "subtotal %s: got %s", subtotal, res.Amount)
	}
}
