package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	SessionHeader    = "X-Session-ID"
	maxSessionLength = 128
)

// Identity resolves who owns the cart. A bearer token, when sent, must be
// valid and wins over the session header. Requests with neither pass through
// with an empty identity; services reject it where one is required.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var identity cart.Identity

			if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
				token := raw
				if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				claims, err := pkgauth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				customerID := claims.CustomerID
				identity.CustomerID = &customerID
				if logg != nil {
					ctx = logg.WithCustomerID(ctx, customerID.String())
				}
			} else if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" {
				if !validSessionID(sid) {
					responses.WriteError(ctx, logg, w, pkgerrors.FieldErrors("invalid session id", map[string]string{SessionHeader: "is invalid"}))
					return
				}
				identity.SessionID = sid
				if logg != nil {
					ctx = logg.WithSessionID(ctx, sid)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// RequireCustomer rejects guests.
func RequireCustomer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()).CustomerID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validSessionID(sid string) bool {
	if len(sid) > maxSessionLength {
		return false
	}
	for _, r := range sid {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
