package cartoffers

import (
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// Price is the server-side economics of one offer product.
type Price struct {
	Base         decimal.Decimal
	Discounted   decimal.Decimal
	UnitDiscount decimal.Decimal
}

// PriceFor discounts the configured base price of item. The result never
// exceeds the current selling price, so an offer is never worse than buying
// the product normally.
func PriceFor(op models.CartOfferProduct, item product.Item) Price {
	selling := money.Round2(item.Price())
	base := selling
	if op.DiscountBase == enums.DiscountBaseRegularPrice {
		base = money.Round2(item.RegularPrice())
	}

	var discounted decimal.Decimal
	switch op.DiscountType {
	case enums.AmountPercentage:
		pct := money.Min(money.NonNegative(op.DiscountValue), hundred)
		discounted = base.Sub(money.Percent(base, pct))
	default:
		discounted = base.Sub(money.NonNegative(op.DiscountValue))
	}
	discounted = money.Round2(money.Min(money.NonNegative(discounted), selling))

	return Price{
		Base:         base,
		Discounted:   discounted,
		UnitDiscount: money.NonNegative(base.Sub(discounted)),
	}
}
