package cartoffers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Presentation is what the storefront renders for a resolved offer.
type Presentation struct {
	OfferID   uuid.UUID            `json:"offer_id"`
	Name      string               `json:"name"`
	Placement enums.OfferPlacement `json:"placement"`
	Priority  int                  `json:"priority"`
	Display   types.OfferDisplay   `json:"display"`
	Products  []PresentedProduct   `json:"products"`
}

type PresentedProduct struct {
	OfferProductID  uuid.UUID               `json:"offer_product_id"`
	ProductID       uuid.UUID               `json:"product_id"`
	VariantID       *uuid.UUID              `json:"variant_id,omitempty"`
	Name            string                  `json:"name"`
	SKU             string                  `json:"sku"`
	ImageURL        *string                 `json:"image_url,omitempty"`
	DiscountType    enums.AmountType        `json:"discount_type"`
	DiscountBase    enums.OfferDiscountBase `json:"discount_base"`
	DiscountValue   decimal.Decimal         `json:"discount_value"`
	BasePrice       decimal.Decimal         `json:"base_price"`
	DiscountedPrice decimal.Decimal         `json:"discounted_price"`
	UnitDiscount    decimal.Decimal         `json:"unit_discount"`
	MaxQuantity     *decimal.Decimal        `json:"max_quantity,omitempty"`
}

// ResolveInput selects the placement being rendered.
type ResolveInput struct {
	Placement enums.OfferPlacement
	ProductID *uuid.UUID
}

// AcceptInput carries no price on purpose; the discounted price is always
// recomputed.
type AcceptInput struct {
	OfferID   uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  decimal.Decimal
}
