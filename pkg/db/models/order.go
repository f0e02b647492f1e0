package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the immutable financial record created from a cart. Only status,
// payment status and notes change after creation.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	CartID        *uuid.UUID          `gorm:"column:cart_id;type:uuid"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`

	PaymentMethodCode  string `gorm:"column:payment_method_code;not null"`
	PaymentMethodName  string `gorm:"column:payment_method_name;not null"`
	ShippingMethodCode string `gorm:"column:shipping_method_code;not null"`
	ShippingMethodName string `gorm:"column:shipping_method_name;not null"`
	Currency           string `gorm:"column:currency;not null;default:'USD'"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxTotal       decimal.Decimal `gorm:"column:tax_total;type:numeric(12,2);not null"`
	ShippingTotal  decimal.Decimal `gorm:"column:shipping_total;type:numeric(12,2);not null"`
	PaymentFee     decimal.Decimal `gorm:"column:payment_fee;type:numeric(12,2);not null"`
	GroupDiscount  decimal.Decimal `gorm:"column:group_discount;type:numeric(12,2);not null;default:0"`
	CouponDiscount decimal.Decimal `gorm:"column:coupon_discount;type:numeric(12,2);not null;default:0"`
	DiscountTotal  decimal.Decimal `gorm:"column:discount_total;type:numeric(12,2);not null"`
	GrandTotal     decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null"`
	CouponID       *uuid.UUID      `gorm:"column:coupon_id;type:uuid"`
	CouponCode     *string         `gorm:"column:coupon_code;index"`

	CustomerEmail string  `gorm:"column:customer_email;not null"`
	CustomerName  string  `gorm:"column:customer_name;not null"`
	CustomerPhone *string `gorm:"column:customer_phone"`
	CustomerNote  *string `gorm:"column:customer_note"`
	AdminNote     *string `gorm:"column:admin_note"`

	Source    string  `gorm:"column:source;not null"`
	IPAddress *string `gorm:"column:ip_address"`
	UserAgent *string `gorm:"column:user_agent"`

	Items     []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Addresses []OrderAddress `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History   []OrderHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// Address returns the address of the given type, if present.
func (o Order) Address(kind enums.AddressType) *OrderAddress {
	for i := range o.Addresses {
		if o.Addresses[i].Type == kind {
			return &o.Addresses[i]
		}
	}
	return nil
}

// OrderItem is the order-time snapshot of a cart line.
type OrderItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	Name           string                `gorm:"column:name;not null"`
	SKU            string                `gorm:"column:sku;not null"`
	Options        types.SelectedOptions `gorm:"column:options;type:jsonb;not null"`
	ImageURL       *string               `gorm:"column:image_url"`
	UnitPrice      decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity       decimal.Decimal       `gorm:"column:quantity;type:numeric(12,3);not null"`
	Subtotal       decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxRate        decimal.Decimal       `gorm:"column:tax_rate;type:numeric(6,3);not null;default:0"`
	TaxAmount      decimal.Decimal       `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	LineTotal      decimal.Decimal       `gorm:"column:line_total;type:numeric(12,2);not null"`
	CartOfferID    *uuid.UUID            `gorm:"column:cart_offer_id;type:uuid"`
	OfferData      *types.OfferData      `gorm:"column:offer_data;type:jsonb;serializer:json"`
	Position       int                   `gorm:"column:position;not null;default:0"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderAddress is a denormalized copy; it never points at a customer address.
type OrderAddress struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Type         enums.AddressType `gorm:"column:type;type:address_type;not null"`
	FirstName    string            `gorm:"column:first_name;not null"`
	LastName     string            `gorm:"column:last_name;not null"`
	Phone        *string           `gorm:"column:phone"`
	Email        *string           `gorm:"column:email"`
	Company      *string           `gorm:"column:company"`
	TaxNumber    *string           `gorm:"column:tax_number"`
	TaxOffice    *string           `gorm:"column:tax_office"`
	AddressLine1 string            `gorm:"column:address_line_1;not null"`
	AddressLine2 *string           `gorm:"column:address_line_2"`
	City         string            `gorm:"column:city;not null"`
	State        *string           `gorm:"column:state"`
	Country      *string           `gorm:"column:country"`
	PostalCode   *string           `gorm:"column:postal_code"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (a *OrderAddress) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// OrderHistory is append-only.
type OrderHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Comment   string            `gorm:"column:comment;not null"`
	Actor     string            `gorm:"column:actor;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}

func (h *OrderHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
