package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderSummary is one row of the customer's order list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Currency      string              `json:"currency"`
	GrandTotal    decimal.Decimal     `json:"grand_total"`
	ItemCount     int                 `json:"item_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full order returned by checkout and the order endpoint.
type OrderDetail struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	CustomerID         *uuid.UUID          `json:"customer_id,omitempty"`
	Status             enums.OrderStatus   `json:"status"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentMethodCode  string              `json:"payment_method_code"`
	PaymentMethodName  string              `json:"payment_method_name"`
	ShippingMethodCode string              `json:"shipping_method_code"`
	ShippingMethodName string              `json:"shipping_method_name"`
	Currency           string              `json:"currency"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	ShippingTotal  decimal.Decimal `json:"shipping_total"`
	PaymentFee     decimal.Decimal `json:"payment_fee"`
	GroupDiscount  decimal.Decimal `json:"group_discount"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	DiscountTotal  decimal.Decimal `json:"discount_total"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	CouponCode     *string         `json:"coupon_code,omitempty"`

	CustomerEmail string  `json:"customer_email"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	CustomerNote  *string `json:"customer_note,omitempty"`

	Items           []OrderItem    `json:"items"`
	BillingAddress  *Address       `json:"billing_address,omitempty"`
	ShippingAddress *Address       `json:"shipping_address,omitempty"`
	History         []HistoryEntry `json:"history"`
	CreatedAt       time.Time      `json:"created_at"`
}

type OrderItem struct {
	ID             uuid.UUID             `json:"id"`
	ProductID      uuid.UUID             `json:"product_id"`
	VariantID      *uuid.UUID            `json:"variant_id,omitempty"`
	Name           string                `json:"name"`
	SKU            string                `json:"sku"`
	Options        types.SelectedOptions `json:"options"`
	ImageURL       *string               `json:"image_url,omitempty"`
	UnitPrice      decimal.Decimal       `json:"unit_price"`
	Quantity       decimal.Decimal       `json:"quantity"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	TaxRate        decimal.Decimal       `json:"tax_rate"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	LineTotal      decimal.Decimal       `json:"line_total"`
	OfferData      *types.OfferData      `json:"offer_data,omitempty"`
}

type Address struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Company      *string `json:"company,omitempty"`
	TaxNumber    *string `json:"tax_number,omitempty"`
	TaxOffice    *string `json:"tax_office,omitempty"`
	AddressLine1 string  `json:"address_line_1"`
	AddressLine2 *string `json:"address_line_2,omitempty"`
	City         string  `json:"city"`
	State        *string `json:"state,omitempty"`
	Country      *string `json:"country,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
}

type HistoryEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Comment   string            `json:"comment"`
	Actor     string            `json:"actor"`
	CreatedAt time.Time         `json:"created_at"`
}

// Summarize maps an order row onto its list entry.
func Summarize(order models.Order) OrderSummary {
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Currency:      order.Currency,
		GrandTotal:    order.GrandTotal,
		ItemCount:     len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}

// Detail maps a fully loaded order onto the API shape.
func Detail(order models.Order) *OrderDetail {
	out := &OrderDetail{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		CustomerID:         order.CustomerID,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		PaymentMethodCode:  order.PaymentMethodCode,
		PaymentMethodName:  order.PaymentMethodName,
		ShippingMethodCode: order.ShippingMethodCode,
		ShippingMethodName: order.ShippingMethodName,
		Currency:           order.Currency,
		Subtotal:           order.Subtotal,
		TaxTotal:           order.TaxTotal,
		ShippingTotal:      order.ShippingTotal,
		PaymentFee:         order.PaymentFee,
		GroupDiscount:      order.GroupDiscount,
		CouponDiscount:     order.CouponDiscount,
		DiscountTotal:      order.DiscountTotal,
		GrandTotal:         order.GrandTotal,
		CouponCode:         order.CouponCode,
		CustomerEmail:      order.CustomerEmail,
		CustomerName:       order.CustomerName,
		CustomerPhone:      order.CustomerPhone,
		CustomerNote:       order.CustomerNote,
		Items:              make([]OrderItem, 0, len(order.Items)),
		History:            make([]HistoryEntry, 0, len(order.History)),
		CreatedAt:          order.CreatedAt,
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, OrderItem{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			SKU:            item.SKU,
			Options:        item.Options,
			ImageURL:       item.ImageURL,
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			Subtotal:       item.Subtotal,
			TaxRate:        item.TaxRate,
			TaxAmount:      item.TaxAmount,
			DiscountAmount: item.DiscountAmount,
			LineTotal:      item.LineTotal,
			OfferData:      item.OfferData,
		})
	}
	if a := order.Address(enums.AddressBilling); a != nil {
		out.BillingAddress = address(*a)
	}
	if a := order.Address(enums.AddressShipping); a != nil {
		out.ShippingAddress = address(*a)
	}
	for _, h := range order.History {
		out.History = append(out.History, HistoryEntry{Status: h.Status, Comment: h.Comment, Actor: h.Actor, CreatedAt: h.CreatedAt})
	}
	return out
}

func address(a models.OrderAddress) *Address {
	return &Address{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Phone:        a.Phone,
		Email:        a.Email,
		Company:      a.Company,
		TaxNumber:    a.TaxNumber,
		TaxOffice:    a.TaxOffice,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		Country:      a.Country,
		PostalCode:   a.PostalCode,
	}
}
