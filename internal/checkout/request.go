package checkout

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func normalize(req Request) Request {
	req.BillingAddress = req.BillingAddress.Normalize()
	if req.ShippingAddress != nil {
		shipTo := req.ShippingAddress.Normalize()
		req.ShippingAddress = &shipTo
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.ShippingMethod = strings.ToLower(strings.TrimSpace(req.ShippingMethod))
	req.CustomerNote = optionalPtr(req.CustomerNote)
	req.CouponCode = optionalPtr(req.CouponCode)
	return req
}

// validateRequest collects every field error before any row is touched.
// Guests must leave an email on the billing address.
func validateRequest(req Request, guest bool) error {
	fields := helpers.ValidateAddress("billing_address", req.BillingAddress, guest)
	if !req.SameAsBilling && req.ShippingAddress != nil {
		for k, v := range helpers.ValidateAddress("shipping_address", *req.ShippingAddress, false) {
			fields[k] = v
		}
	}
	if req.PaymentMethod == "" {
		fields["payment_method"] = "is required"
	}
	if req.ShippingMethod == "" {
		fields["shipping_method"] = "is required"
	}
	if req.CustomerNote != nil && len(*req.CustomerNote) > 2000 {
		fields["customer_note"] = "must be at most 2000 characters"
	}
	if len(fields) > 0 {
		return pkgerrors.FieldErrors("checkout request is invalid", fields)
	}
	return nil
}

func optionalPtr(v *string) *string {
	if v == nil {
		return nil
	}
	return optional(*v)
}
