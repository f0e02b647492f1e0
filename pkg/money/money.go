// Package money holds the rounding rules shared by every monetary computation.
// Amounts are shopspring decimals rounded to two places, half away from zero,
// which matches half-up for the non-negative values the checkout works with.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

const Places = 2

var (
	Zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// Round2 rounds to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns round2(base * pct / 100).
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(pct).Div(hundred))
}

// NonNegative clamps negative values to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds the values without intermediate rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// LineAmount is round2(unit * qty).
func LineAmount(unit, qty decimal.Decimal) decimal.Decimal {
	return Round2(unit.Mul(qty))
}

// Allocate splits a non-negative total across weights proportionally using
// the largest remainder method: every share is floored to cents, then the
// leftover cents go one each to the largest remainders, later weights first on
// ties. Shares add up to total exactly and, when total does not exceed the sum
// of cent-valued weights, no share exceeds its weight.
func Allocate(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	for i := range shares {
		shares[i] = Zero
	}
	if !total.IsPositive() || len(weights) == 0 {
		return shares
	}

	sum := Zero
	for _, w := range weights {
		if w.IsPositive() {
			sum = sum.Add(w)
		}
	}
	if sum.IsZero() {
		return shares
	}

	type remainder struct {
		index int
		frac  decimal.Decimal
	}
	remainders := make([]remainder, 0, len(weights))
	allocated := Zero
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		exact := total.Mul(w).Div(sum)
		floor := exact.Truncate(Places)
		shares[i] = floor
		allocated = allocated.Add(floor)
		remainders = append(remainders, remainder{index: i, frac: exact.Sub(floor)})
	}

	sort.SliceStable(remainders, func(a, b int) bool {
		if !remainders[a].frac.Equal(remainders[b].frac) {
			return remainders[a].frac.GreaterThan(remainders[b].frac)
		}
		return remainders[a].index > remainders[b].index
	})

	cent := decimal.New(1, -Places)
	left := total.Sub(allocated)
	for i := 0; left.IsPositive() && len(remainders) > 0; i = (i + 1) % len(remainders) {
		step := Min(cent, left)
		idx := remainders[i].index
		shares[idx] = shares[idx].Add(step)
		left = left.Sub(step)
	}
	return shares
}
