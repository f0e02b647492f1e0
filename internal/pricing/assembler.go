// Package pricing turns priced lines and the chosen methods into the order
// money breakdown. Steps run in a fixed order because the payment fee is
// charged on the discounted, pre-fee amount.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Line is one priced cart line. TaxRate is a percentage.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	TaxRate   decimal.Decimal
}

// Input carries everything the assembler needs. A nil method contributes
// nothing, which is how cart snapshots are priced before checkout.
type Input struct {
	Lines          []Line
	ShippingMethod *models.ShippingMethod
	PaymentMethod  *models.PaymentMethod
	// GroupDiscountPercent is the best active customer group percentage.
	GroupDiscountPercent decimal.Decimal
	CouponDiscount       decimal.Decimal
	FreeShipping         bool
}

type LineBreakdown struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
}

type Breakdown struct {
	Lines          []LineBreakdown
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	ShippingTotal  decimal.Decimal
	CODFee         decimal.Decimal
	GroupDiscount  decimal.Decimal
	CouponDiscount decimal.Decimal
	DiscountTotal  decimal.Decimal
	PaymentFee     decimal.Decimal
	GrandTotal     decimal.Decimal
}

// Assemble computes the breakdown. The discount total is capped at the value
// of the goods (subtotal plus tax) and spread over the lines in proportion to
// their gross amount, so every line keeps a non-negative total and
//
//	grand_total = subtotal + tax_total + shipping_total + payment_fee - discount_total
//	            = sum(line_total) + shipping_total + payment_fee
func Assemble(in Input) Breakdown {
	out := Breakdown{Lines: make([]LineBreakdown, len(in.Lines))}

	gross := make([]decimal.Decimal, len(in.Lines))
	for i, line := range in.Lines {
		sub := money.LineAmount(line.UnitPrice, line.Quantity)
		tax := money.Percent(sub, line.TaxRate)
		out.Lines[i] = LineBreakdown{Subtotal: sub, TaxAmount: tax}
		out.Subtotal = out.Subtotal.Add(sub)
		out.TaxTotal = out.TaxTotal.Add(tax)
		gross[i] = sub.Add(tax)
	}

	if in.ShippingMethod != nil && !in.FreeShipping {
		out.ShippingTotal = shipping.Cost(*in.ShippingMethod, out.Subtotal)
		if in.PaymentMethod != nil {
			out.CODFee = shipping.CODFee(*in.ShippingMethod, *in.PaymentMethod)
			out.ShippingTotal = out.ShippingTotal.Add(out.CODFee)
		}
	}

	goods := out.Subtotal.Add(out.TaxTotal)
	out.GroupDiscount = money.Min(money.Percent(out.Subtotal, money.NonNegative(in.GroupDiscountPercent)), goods)
	out.CouponDiscount = money.Min(money.Round2(money.NonNegative(in.CouponDiscount)), goods.Sub(out.GroupDiscount))
	out.DiscountTotal = out.GroupDiscount.Add(out.CouponDiscount)

	if in.PaymentMethod != nil {
		base := out.Subtotal.Add(out.TaxTotal).Add(out.ShippingTotal).Sub(out.DiscountTotal)
		out.PaymentFee = shipping.PaymentFee(*in.PaymentMethod, base)
	}

	out.GrandTotal = money.NonNegative(
		out.Subtotal.Add(out.TaxTotal).Add(out.ShippingTotal).Add(out.PaymentFee).Sub(out.DiscountTotal),
	)

	shares := money.Allocate(out.DiscountTotal, gross)
	for i := range out.Lines {
		out.Lines[i].DiscountAmount = shares[i]
		out.Lines[i].LineTotal = out.Lines[i].Subtotal.Add(out.Lines[i].TaxAmount).Sub(shares[i])
	}
	return out
}
