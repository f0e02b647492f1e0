package helpers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/checkout/reservation"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Refs lists the distinct stock rows referenced by the cart, in line order.
func Refs(items []models.CartItem) []product.Ref {
	seen := make(map[product.Ref]struct{}, len(items))
	refs := make([]product.Ref, 0, len(items))
	for _, item := range items {
		ref := product.NewRef(item.ProductID, item.VariantID)
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// ReservationRequests maps cart lines onto stock requests.
func ReservationRequests(items []models.CartItem, loaded map[product.Ref]product.Item) []reservation.Request {
	out := make([]reservation.Request, 0, len(items))
	for _, item := range items {
		ref := product.NewRef(item.ProductID, item.VariantID)
		out = append(out, reservation.Request{
			LineID:   item.ID,
			Ref:      ref,
			Name:     nameOf(ref, loaded),
			Quantity: item.Quantity,
		})
	}
	return out
}

func nameOf(ref product.Ref, loaded map[product.Ref]product.Item) string {
	if row, ok := loaded[ref]; ok {
		return row.Name()
	}
	return "product " + ref.ProductID.String()
}

// CheckLines verifies every line against the loaded catalog rows: the product
// (and variant) must still be sellable and the quantity of all lines sharing
// a stock row must fit the stock policy.
func CheckLines(items []models.CartItem, loaded map[product.Ref]product.Item) error {
	totals := make(map[product.Ref]decimal.Decimal, len(items))
	for _, item := range items {
		ref := product.NewRef(item.ProductID, item.VariantID)
		row, ok := loaded[ref]
		if !ok || !row.Active() {
			return pkgerrors.Violation(fmt.Sprintf("items.%s", item.ID), "product_unavailable",
				fmt.Sprintf("%s is no longer available", nameOf(ref, loaded)))
		}
		totals[ref] = totals[ref].Add(item.Quantity)
		req := reservation.Request{LineID: item.ID, Ref: ref, Name: row.Name(), Quantity: totals[ref]}
		if err := reservation.Check(req, row.Stock()); err != nil {
			return err
		}
	}
	return nil
}

// TaxClassIDs returns the distinct tax classes of the loaded rows.
func TaxClassIDs(loaded map[product.Ref]product.Item) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := []uuid.UUID{}
	for _, item := range loaded {
		id := item.Product.TaxClassID
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		out = append(out, *id)
	}
	return out
}

// TaxRate picks the rate for a row; products without a class are untaxed.
func TaxRate(item product.Item, rates map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	if item.Product.TaxClassID == nil {
		return decimal.Zero
	}
	if rate, ok := rates[*item.Product.TaxClassID]; ok {
		return rate
	}
	return decimal.Zero
}
