package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/cartoffers"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartOfferService is the slice of cartoffers.Service the handlers use.
type CartOfferService interface {
	Resolve(ctx context.Context, identity cart.Identity, in cartoffers.ResolveInput) (*cartoffers.Presentation, error)
	Accept(ctx context.Context, identity cart.Identity, in cartoffers.AcceptInput) (*cart.Snapshot, error)
	Reject(ctx context.Context, identity cart.Identity, offerID uuid.UUID) error
}

type acceptOfferRequest struct {
	OfferID   uuid.UUID       `json:"offer_id" validate:"required"`
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type rejectOfferRequest struct {
	OfferID uuid.UUID `json:"offer_id" validate:"required"`
}

// CartOfferResolve returns the offer for a placement, or null.
func CartOfferResolve(svc CartOfferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		placement, err := enums.ParseOfferPlacement(strings.TrimSpace(r.URL.Query().Get("placement")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.FieldErrors("invalid placement", map[string]string{"placement": "is invalid"}))
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		presentation, err := svc.Resolve(r.Context(), middleware.IdentityFromContext(r.Context()), cartoffers.ResolveInput{
			Placement: placement,
			ProductID: productID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presentation)
	}
}

// CartOfferAccept adds the offer product at the server computed price.
func CartOfferAccept(svc CartOfferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload acceptOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.Accept(r.Context(), middleware.IdentityFromContext(r.Context()), cartoffers.AcceptInput{
			OfferID:   payload.OfferID,
			ProductID: payload.ProductID,
			VariantID: payload.VariantID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func CartOfferReject(svc CartOfferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload rejectOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Reject(r.Context(), middleware.IdentityFromContext(r.Context()), payload.OfferID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
