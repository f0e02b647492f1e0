// Package shipping prices delivery and payment methods. The calculators are
// pure; the repository only loads the configured methods.
package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Cost returns the shipping charge for the method given the order subtotal.
// Reaching the free shipping threshold zeroes the charge.
func Cost(method models.ShippingMethod, subtotal decimal.Decimal) decimal.Decimal {
	if method.FreeShippingThreshold != nil && method.FreeShippingThreshold.IsPositive() &&
		subtotal.GreaterThanOrEqual(*method.FreeShippingThreshold) {
		return money.Zero
	}
	switch method.RateType {
	case enums.ShippingRatePercentage:
		return money.Percent(subtotal, method.Rate)
	default:
		return money.Round2(method.Rate)
	}
}

// CODFee is the surcharge added to shipping when paying cash on delivery.
func CODFee(method models.ShippingMethod, payment models.PaymentMethod) decimal.Decimal {
	if !payment.IsCOD || !method.SupportsCOD {
		return money.Zero
	}
	return money.Round2(method.CODFee)
}

// PaymentFee is charged on the discounted, pre-fee order amount.
func PaymentFee(method models.PaymentMethod, base decimal.Decimal) decimal.Decimal {
	base = money.NonNegative(base)
	switch method.FeeType {
	case enums.PaymentFeeFixed:
		return money.Round2(method.FeeValue)
	case enums.PaymentFeePercentage:
		return money.Percent(base, method.FeeValue)
	default:
		return money.Zero
	}
}

// CheckCompatible rejects inactive methods and cash on delivery with a
// shipping method that cannot collect it.
func CheckCompatible(method models.ShippingMethod, payment models.PaymentMethod) error {
	if !method.IsActive {
		return pkgerrors.Violation("shipping_method", "shipping_method_unavailable", "shipping method is not available")
	}
	if !payment.IsActive {
		return pkgerrors.Violation("payment_method", "payment_method_unavailable", "payment method is not available")
	}
	if payment.IsCOD && !method.SupportsCOD {
		return pkgerrors.Violation("payment_method", "cod_unsupported", "cash on delivery is not supported by this shipping method")
	}
	return nil
}
