package coupons

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func auto(priority int, id string, combinable bool) Result {
	return Result{
		Coupon: models.Coupon{ID: uuid.MustParse(id), Priority: priority, CanCombineWithOtherCoupons: combinable},
		Amount: dec("1"),
	}
}

func TestSelectAutomaticPrefersPriorityThenLowestID(t *testing.T) {
	low := auto(1, "00000000-0000-0000-0000-000000000001", false)
	highB := auto(5, "00000000-0000-0000-0000-00000000000b", false)
	highA := auto(5, "00000000-0000-0000-0000-00000000000a", false)

	best := SelectAutomatic([]Result{low, highB, highA})
	require.NotNil(t, best)
	assert.Equal(t, highA.Coupon.ID, best.Coupon.ID)

	// order of candidates does not matter
	best = SelectAutomatic([]Result{highA, low, highB})
	assert.Equal(t, highA.Coupon.ID, best.Coupon.ID)

	assert.Nil(t, SelectAutomatic(nil))
}

func TestCombineRespectsBothFlags(t *testing.T) {
	code := Result{Coupon: models.Coupon{ID: uuid.New(), CanCombineWithAutoDiscounts: true}, Amount: dec("5")}
	stackable := auto(1, "00000000-0000-0000-0000-000000000001", true)
	exclusive := auto(9, "00000000-0000-0000-0000-000000000002", false)

	applied := Combine(&code, []Result{stackable})
	require.NotNil(t, applied.Code)
	require.NotNil(t, applied.Automatic)
	assert.True(t, applied.Discount().Equal(dec("6")))
	assert.Equal(t, code.Coupon.ID, applied.Primary().Coupon.ID)

	// the best automatic discount refuses to stack, so only the code applies
	applied = Combine(&code, []Result{stackable, exclusive})
	assert.Nil(t, applied.Automatic)

	code.Coupon.CanCombineWithAutoDiscounts = false
	applied = Combine(&code, []Result{stackable})
	assert.Nil(t, applied.Automatic)
	assert.Len(t, applied.Results(), 1)

	applied = Combine(nil, []Result{stackable, exclusive})
	require.NotNil(t, applied.Automatic)
	assert.Equal(t, exclusive.Coupon.ID, applied.Primary().Coupon.ID)
}

func TestCombineKeepsCodeOverLargerExclusiveAutomatic(t *testing.T) {
	code := Result{Coupon: models.Coupon{ID: uuid.New(), CanCombineWithAutoDiscounts: true}, Amount: dec("5")}
	big := auto(1, "00000000-0000-0000-0000-000000000003", false)
	big.Amount = dec("50")

	applied := Combine(&code, []Result{big})
	require.NotNil(t, applied.Code)
	assert.Nil(t, applied.Automatic)
	assert.True(t, applied.Discount().Equal(dec("5")))
}

func TestAppliedFreeShipping(t *testing.T) {
	applied := Applied{Automatic: &Result{FreeShipping: true}}
	assert.True(t, applied.FreeShipping())
	assert.False(t, Applied{}.FreeShipping())
	assert.True(t, Applied{}.Discount().IsZero())
}

func TestCapClipsCodeCouponFirst(t *testing.T) {
	code := &Result{Coupon: models.Coupon{ID: uuid.New()}, Amount: dec("30")}
	automatic := &Result{Coupon: models.Coupon{ID: uuid.New()}, Amount: dec("20")}
	applied := Applied{Code: code, Automatic: automatic}

	capped := applied.Cap(dec("35"))
	assert.True(t, capped.Code.Amount.Equal(dec("30")))
	assert.True(t, capped.Automatic.Amount.Equal(dec("5")))
	assert.True(t, capped.Discount().Equal(dec("35")))
	assert.True(t, code.Amount.Equal(dec("30")), "original result untouched")
	assert.True(t, automatic.Amount.Equal(dec("20")), "original result untouched")

	capped = applied.Cap(dec("12"))
	assert.True(t, capped.Code.Amount.Equal(dec("12")))
	assert.True(t, capped.Automatic.Amount.IsZero())

	assert.True(t, applied.Cap(dec("100")).Discount().Equal(dec("50")))
	assert.Nil(t, Applied{Code: code}.Cap(dec("1")).Automatic)
}
