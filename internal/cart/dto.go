package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Snapshot is the recalculated view of a cart returned by every cart call.
type Snapshot struct {
	CartID          *uuid.UUID       `json:"cart_id,omitempty"`
	Currency        string           `json:"currency"`
	Items           []SnapshotItem   `json:"items"`
	ItemCount       int              `json:"item_count"`
	Coupons         []AppliedCoupon  `json:"coupons"`
	CouponRejection *CouponRejection `json:"coupon_rejection,omitempty"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	TaxTotal        decimal.Decimal  `json:"tax_total"`
	ShippingTotal   decimal.Decimal  `json:"shipping_total"`
	GroupDiscount   decimal.Decimal  `json:"group_discount"`
	CouponDiscount  decimal.Decimal  `json:"coupon_discount"`
	DiscountTotal   decimal.Decimal  `json:"discount_total"`
	GrandTotal      decimal.Decimal  `json:"grand_total"`
	FreeShipping    bool             `json:"free_shipping"`
}

type SnapshotItem struct {
	ID          uuid.UUID             `json:"id"`
	ProductID   uuid.UUID             `json:"product_id"`
	VariantID   *uuid.UUID            `json:"variant_id,omitempty"`
	Quantity    decimal.Decimal       `json:"quantity"`
	UnitPrice   decimal.Decimal       `json:"unit_price"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	Options     types.SelectedOptions `json:"options"`
	CartOfferID *uuid.UUID            `json:"cart_offer_id,omitempty"`
	OfferData   *types.OfferData      `json:"offer_data,omitempty"`
}

type AppliedCoupon struct {
	ID           uuid.UUID       `json:"id"`
	Code         *string         `json:"code,omitempty"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	FreeShipping bool            `json:"free_shipping"`
	Automatic    bool            `json:"automatic"`
}

// CouponRejection explains why the attached code no longer applies.
type CouponRejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func emptySnapshot(currency string) *Snapshot {
	return &Snapshot{
		Currency: currency,
		Items:    []SnapshotItem{},
		Coupons:  []AppliedCoupon{},
	}
}

func snapshotItem(item models.CartItem, subtotal decimal.Decimal) SnapshotItem {
	options := item.Options
	if options == nil {
		options = types.SelectedOptions{}
	}
	return SnapshotItem{
		ID:          item.ID,
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Subtotal:    subtotal,
		Options:     options,
		CartOfferID: item.CartOfferID,
		OfferData:   item.OfferData,
	}
}
