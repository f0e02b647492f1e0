package cartoffers

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// CartLine is the part of a cart line the resolver looks at.
type CartLine struct {
	ProductID   uuid.UUID
	CategoryIDs []uuid.UUID
	Discounted  bool
}

// CartView is a read-only picture of the shopper's cart. Total is the items
// subtotal before discounts.
type CartView struct {
	Lines []CartLine
	Total decimal.Decimal
}

// Usage is how often the shopper accepted or dismissed one offer.
type Usage struct {
	Accepted int
	Rejected int
}

// Query narrows resolution to one placement. ProductID and its categories
// are set on product pages and count as cart content for triggers.
type Query struct {
	Placement          enums.OfferPlacement
	ProductID          *uuid.UUID
	ProductCategoryIDs []uuid.UUID
	Now                time.Time
}

// Candidate is an eligible offer with the products the shopper may see.
type Candidate struct {
	Offer    models.CartOffer
	Products []models.CartOfferProduct
}

// Select returns the best eligible offer, or nil.
func Select(offers []models.CartOffer, cart CartView, usage map[uuid.UUID]Usage, q Query) *Candidate {
	ranked := Rank(offers, cart, usage, q)
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}

// Rank filters offers down to the eligible ones, ordered by priority
// descending and then id ascending.
func Rank(offers []models.CartOffer, cart CartView, usage map[uuid.UUID]Usage, q Query) []Candidate {
	inCart := make(map[uuid.UUID]struct{}, len(cart.Lines)+1)
	categories := make(map[uuid.UUID]struct{})
	discounted := false
	for _, line := range cart.Lines {
		inCart[line.ProductID] = struct{}{}
		for _, id := range line.CategoryIDs {
			categories[id] = struct{}{}
		}
		discounted = discounted || line.Discounted
	}

	// the viewed product triggers offers but does not hide them
	triggerProducts := make(map[uuid.UUID]struct{}, len(inCart)+1)
	for id := range inCart {
		triggerProducts[id] = struct{}{}
	}
	if q.ProductID != nil {
		triggerProducts[*q.ProductID] = struct{}{}
		for _, id := range q.ProductCategoryIDs {
			categories[id] = struct{}{}
		}
	}

	out := make([]Candidate, 0, len(offers))
	for _, offer := range offers {
		if !offer.IsActive || offer.Placement != q.Placement || !inWindow(offer, q.Now) {
			continue
		}
		if !triggered(offer, triggerProducts, categories, cart.Total) {
			continue
		}
		cond := offer.Conditions
		if cond.MinCartTotal != nil && cart.Total.LessThan(*cond.MinCartTotal) {
			continue
		}
		if cond.MaxCartTotal != nil && cart.Total.GreaterThan(*cond.MaxCartTotal) {
			continue
		}
		if cond.ExcludeDiscounted && discounted {
			continue
		}

		used := usage[offer.ID]
		if offer.UsageLimitPerCustomer != nil && *offer.UsageLimitPerCustomer > 0 && used.Accepted >= *offer.UsageLimitPerCustomer {
			continue
		}

		visible := visibleProducts(offer.Products, used)
		if len(visible) == 0 {
			continue
		}
		if cond.HideIfInCart && anyInCart(visible, inCart) {
			continue
		}
		out = append(out, Candidate{Offer: offer, Products: visible})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Offer.Priority != out[j].Offer.Priority {
			return out[i].Offer.Priority > out[j].Offer.Priority
		}
		return bytes.Compare(out[i].Offer.ID[:], out[j].Offer.ID[:]) < 0
	})
	return out
}

func inWindow(offer models.CartOffer, now time.Time) bool {
	if offer.StartsAt != nil && now.Before(*offer.StartsAt) {
		return false
	}
	if offer.EndsAt != nil && now.After(*offer.EndsAt) {
		return false
	}
	return true
}

func triggered(offer models.CartOffer, products, categories map[uuid.UUID]struct{}, total decimal.Decimal) bool {
	cfg := offer.TriggerConfig
	switch offer.TriggerType {
	case enums.TriggerAllProducts:
		return true
	case enums.TriggerSpecificProducts:
		return overlaps(cfg.ProductIDs, products)
	case enums.TriggerSpecificCategories:
		return overlaps(cfg.CategoryIDs, categories)
	case enums.TriggerCartTotal:
		if cfg.MinTotal != nil && total.LessThan(*cfg.MinTotal) {
			return false
		}
		if cfg.MaxTotal != nil && total.GreaterThan(*cfg.MaxTotal) {
			return false
		}
		return true
	default:
		return false
	}
}

// visibleProducts applies show_condition chaining and keeps display order.
func visibleProducts(products []models.CartOfferProduct, used Usage) []models.CartOfferProduct {
	out := make([]models.CartOfferProduct, 0, len(products))
	for _, p := range products {
		switch p.ShowCondition {
		case enums.ShowIfAccepted:
			if used.Accepted == 0 {
				continue
			}
		case enums.ShowIfRejected:
			if used.Rejected == 0 {
				continue
			}
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func overlaps(ids []uuid.UUID, set map[uuid.UUID]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func anyInCart(products []models.CartOfferProduct, inCart map[uuid.UUID]struct{}) bool {
	for _, p := range products {
		if _, ok := inCart[p.ProductID]; ok {
			return true
		}
	}
	return false
}
