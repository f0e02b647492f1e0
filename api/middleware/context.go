package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

type contextKey string

const ctxIdentity contextKey = "cart_identity"

// IdentityFromContext returns the shopper resolved by the Identity middleware.
// The zero value fails cart.Identity.Validate.
func IdentityFromContext(ctx context.Context) cart.Identity {
	if ctx == nil {
		return cart.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(cart.Identity); ok {
		return v
	}
	return cart.Identity{}
}

// WithIdentity stores the shopper identity. Tests use it to skip token minting.
func WithIdentity(ctx context.Context, identity cart.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
