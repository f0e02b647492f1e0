package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted in the checkout transaction. Consumers run the
// post-commit side effects (customer stats, confirmation email) from it.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Currency      string          `json:"currency"`
	CouponCode    *string         `json:"coupon_code,omitempty"`
	ItemCount     int             `json:"item_count"`
	PlacedAt      time.Time       `json:"placed_at"`
}

// CartAbandonedEvent reports a cart that left the active state without an order.
type CartAbandonedEvent struct {
	CartID      uuid.UUID       `json:"cart_id"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	SessionID   *string         `json:"session_id,omitempty"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Reason      string          `json:"reason"`
	AbandonedAt time.Time       `json:"abandoned_at"`
}

// CartOfferAcceptedEvent records an accepted upsell for merchandising reports.
type CartOfferAcceptedEvent struct {
	CartID             uuid.UUID       `json:"cart_id"`
	CartOfferID        uuid.UUID       `json:"cart_offer_id"`
	CartOfferProductID uuid.UUID       `json:"cart_offer_product_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	VariantID          *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	DiscountedPrice    decimal.Decimal `json:"discounted_price"`
	CustomerID         *uuid.UUID      `json:"customer_id,omitempty"`
	SessionID          *string         `json:"session_id,omitempty"`
}
