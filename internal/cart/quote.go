package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// CouponLines adapts cart items to coupon engine input. categories maps
// product ids to their category ids.
func CouponLines(items []models.CartItem, categories map[uuid.UUID][]uuid.UUID) []coupons.Line {
	lines := make([]coupons.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, coupons.Line{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			CategoryIDs: categories[item.ProductID],
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	return lines
}

// ProductIDs lists the distinct products in the cart in line order.
func ProductIDs(items []models.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// ItemsSubtotal is the tax-exclusive value of the items at their snapshot prices.
func ItemsSubtotal(items []models.CartItem) decimal.Decimal {
	total := money.Zero
	for _, item := range items {
		total = total.Add(money.LineAmount(item.UnitPrice, item.Quantity))
	}
	return total
}

// HasDiscountedLine reports whether any line already carries an offer discount.
func HasDiscountedLine(items []models.CartItem) bool {
	for _, item := range items {
		if item.Discounted() {
			return true
		}
	}
	return false
}
