package types

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OfferData is the discount snapshot attached to a cart line when a cart offer
// is accepted. It is copied verbatim onto the order item.
type OfferData struct {
	CartOfferID        uuid.UUID               `json:"cart_offer_id"`
	CartOfferProductID uuid.UUID               `json:"cart_offer_product_id"`
	OfferName          string                  `json:"offer_name"`
	DiscountType       enums.AmountType        `json:"discount_type"`
	DiscountBase       enums.OfferDiscountBase `json:"discount_base"`
	DiscountValue      decimal.Decimal         `json:"discount_value"`
	BasePrice          decimal.Decimal         `json:"base_price"`
	DiscountedPrice    decimal.Decimal         `json:"discounted_price"`
	UnitDiscount       decimal.Decimal         `json:"unit_discount"`
	AcceptedAt         time.Time               `json:"accepted_at"`
}

// Validate guards the snapshot before it reaches business logic.
func (o OfferData) Validate() error {
	if o.CartOfferID == uuid.Nil || o.CartOfferProductID == uuid.Nil {
		return errors.New("offer data: offer references are required")
	}
	if !o.DiscountType.IsValid() {
		return errors.New("offer data: invalid discount type")
	}
	if !o.DiscountBase.IsValid() {
		return errors.New("offer data: invalid discount base")
	}
	if o.DiscountedPrice.IsNegative() || o.BasePrice.IsNegative() {
		return errors.New("offer data: prices must not be negative")
	}
	if o.DiscountedPrice.GreaterThan(o.BasePrice) {
		return errors.New("offer data: discounted price exceeds base price")
	}
	return nil
}

// Value serializes the snapshot to JSON.
func (o *OfferData) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return jsonValue(o)
}

// Scan decodes JSON into the snapshot.
func (o *OfferData) Scan(value interface{}) error {
	*o = OfferData{}
	return scanJSON(value, o)
}
