package cartoffers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type offerLineAdder interface {
	AddOfferLine(ctx context.Context, tx *gorm.DB, identity cart.Identity, line cart.OfferLine) (*cart.Snapshot, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Deps wires the offer service.
type Deps struct {
	Tx       txRunner
	Repo     Repository
	Carts    cart.Repository
	Cart     offerLineAdder
	Products product.Repository
	Outbox   outboxPublisher
	Logger   *logger.Logger
	Now      func() time.Time
}

type Service struct {
	tx       txRunner
	repo     Repository
	carts    cart.Repository
	cart     offerLineAdder
	products product.Repository
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(deps Deps) (*Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("cart offer repository required")
	}
	if deps.Carts == nil || deps.Cart == nil {
		return nil, fmt.Errorf("cart dependencies required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		tx:       deps.Tx,
		repo:     deps.Repo,
		carts:    deps.Carts,
		cart:     deps.Cart,
		products: deps.Products,
		outbox:   deps.Outbox,
		logg:     deps.Logger,
		now:      deps.Now,
	}, nil
}

// Resolve picks the offer to show for a placement. It reads only; nothing in
// the cart changes. A nil presentation means no offer applies.
func (s *Service) Resolve(ctx context.Context, identity cart.Identity, in ResolveInput) (*Presentation, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if !in.Placement.IsValid() {
		return nil, pkgerrors.FieldErrors("invalid placement", map[string]string{"placement": "is invalid"})
	}

	record, err := s.carts.FindActive(ctx, identity, false)
	if err != nil {
		return nil, err
	}
	var items []models.CartItem
	if record != nil {
		items = record.Items
	}

	productIDs := cart.ProductIDs(items)
	if in.ProductID != nil {
		productIDs = append(productIDs, *in.ProductID)
	}
	categories, err := s.products.CategoryIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	view := CartView{Total: cart.ItemsSubtotal(items)}
	for _, item := range items {
		view.Lines = append(view.Lines, CartLine{
			ProductID:   item.ProductID,
			CategoryIDs: categories[item.ProductID],
			Discounted:  item.Discounted(),
		})
	}

	offers, err := s.repo.ListActive(ctx, in.Placement)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(offers))
	for i, offer := range offers {
		ids[i] = offer.ID
	}
	usage, err := s.repo.Usage(ctx, identity, ids)
	if err != nil {
		return nil, err
	}

	q := Query{Placement: in.Placement, ProductID: in.ProductID, Now: s.now()}
	if in.ProductID != nil {
		q.ProductCategoryIDs = categories[*in.ProductID]
	}
	for _, candidate := range Rank(offers, view, usage, q) {
		presentation, err := s.present(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if presentation != nil {
			return presentation, nil
		}
	}
	return nil, nil
}

// present prices the candidate's products at current catalog values and
// drops the ones that can no longer be bought.
func (s *Service) present(ctx context.Context, candidate Candidate) (*Presentation, error) {
	out := &Presentation{
		OfferID:   candidate.Offer.ID,
		Name:      candidate.Offer.Name,
		Placement: candidate.Offer.Placement,
		Priority:  candidate.Offer.Priority,
		Display:   candidate.Offer.Display,
	}
	for _, op := range candidate.Products {
		item, err := s.products.FindItem(ctx, op.ProductID, op.VariantID)
		if pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !item.Active() {
			continue
		}
		price := PriceFor(op, *item)
		out.Products = append(out.Products, PresentedProduct{
			OfferProductID:  op.ID,
			ProductID:       op.ProductID,
			VariantID:       op.VariantID,
			Name:            item.Name(),
			SKU:             item.SKU(),
			ImageURL:        item.ImageURL(),
			DiscountType:    op.DiscountType,
			DiscountBase:    op.DiscountBase,
			DiscountValue:   op.DiscountValue,
			BasePrice:       price.Base,
			DiscountedPrice: price.Discounted,
			UnitDiscount:    price.UnitDiscount,
			MaxQuantity:     op.MaxQuantity,
		})
	}
	if len(out.Products) == 0 {
		return nil, nil
	}
	return out, nil
}

// Accept adds an offer product to the cart at the server-computed price and
// counts the acceptance, all in one transaction.
func (s *Service) Accept(ctx context.Context, identity cart.Identity, in AcceptInput) (*cart.Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, pkgerrors.FieldErrors("invalid quantity", map[string]string{"quantity": "must be greater than zero"})
	}
	if in.Quantity.GreaterThan(cart.MaxLineQuantity) {
		return nil, pkgerrors.FieldErrors("invalid quantity", map[string]string{"quantity": "at most " + cart.MaxLineQuantity.String()})
	}

	var snap *cart.Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now().UTC()
		offers := s.repo.WithTx(tx)

		offer, err := offers.FindByID(ctx, in.OfferID)
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.Violation("offer_id", "offer_unavailable", "Offer is no longer available")
		}
		if err != nil {
			return err
		}
		if !offer.IsActive || !inWindow(*offer, now) {
			return pkgerrors.Violation("offer_id", "offer_unavailable", "Offer is no longer available")
		}

		usage, err := offers.Usage(ctx, identity, []uuid.UUID{offer.ID})
		if err != nil {
			return err
		}
		used := usage[offer.ID]
		if offer.UsageLimitPerCustomer != nil && *offer.UsageLimitPerCustomer > 0 && used.Accepted >= *offer.UsageLimitPerCustomer {
			return pkgerrors.Violation("offer_id", "usage_limit_reached", "Offer was already used")
		}

		op := matchProduct(visibleProducts(offer.Products, used), in.ProductID, in.VariantID)
		if op == nil {
			return pkgerrors.Violation("product_id", "not_in_offer", "Product is not part of this offer")
		}
		if op.MaxQuantity != nil && in.Quantity.GreaterThan(*op.MaxQuantity) {
			return pkgerrors.Violation("quantity", "max_quantity_exceeded",
				fmt.Sprintf("At most %s can be added with this offer", op.MaxQuantity.String()))
		}

		variantID := op.VariantID
		if variantID == nil {
			variantID = in.VariantID
		}
		item, err := s.products.WithTx(tx).FindItem(ctx, op.ProductID, variantID)
		if err != nil {
			return err
		}
		if !item.Active() {
			return pkgerrors.Violation("product_id", "product_unavailable", fmt.Sprintf("%s is no longer available", item.Name()))
		}

		price := PriceFor(*op, *item)
		data := types.OfferData{
			CartOfferID:        offer.ID,
			CartOfferProductID: op.ID,
			OfferName:          offer.Name,
			DiscountType:       op.DiscountType,
			DiscountBase:       op.DiscountBase,
			DiscountValue:      op.DiscountValue,
			BasePrice:          price.Base,
			DiscountedPrice:    price.Discounted,
			UnitDiscount:       price.UnitDiscount,
			AcceptedAt:         now,
		}
		if err := data.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build offer snapshot")
		}

		snap, err = s.cart.AddOfferLine(ctx, tx, identity, cart.OfferLine{
			Item:      *item,
			Quantity:  in.Quantity,
			UnitPrice: price.Discounted,
			Offer:     data,
		})
		if err != nil {
			return err
		}
		if err := offers.RecordAccept(ctx, identity, offer.ID, now); err != nil {
			return err
		}
		return s.emitAccepted(ctx, tx, identity, snap, data, item.Ref(), in)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"offer_id":   in.OfferID.String(),
		"product_id": in.ProductID.String(),
	}), "cart offer accepted")
	return snap, nil
}

// Reject records that the shopper dismissed the offer. if_rejected products
// become visible on the next resolve.
func (s *Service) Reject(ctx context.Context, identity cart.Identity, offerID uuid.UUID) error {
	if err := identity.Validate(); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		offers := s.repo.WithTx(tx)
		if _, err := offers.FindByID(ctx, offerID); err != nil {
			return err
		}
		return offers.RecordReject(ctx, identity, offerID, s.now().UTC())
	})
}

func (s *Service) emitAccepted(ctx context.Context, tx *gorm.DB, identity cart.Identity, snap *cart.Snapshot, data types.OfferData, ref product.Ref, in AcceptInput) error {
	if snap == nil || snap.CartID == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "cart snapshot missing id")
	}
	actor := &outbox.ActorRef{CustomerID: identity.CustomerID, SessionID: identity.SessionID}
	payload := payloads.CartOfferAcceptedEvent{
		CartID:             *snap.CartID,
		CartOfferID:        data.CartOfferID,
		CartOfferProductID: data.CartOfferProductID,
		ProductID:          ref.ProductID,
		VariantID:          ref.VariantPtr(),
		Quantity:           in.Quantity,
		DiscountedPrice:    data.DiscountedPrice,
		CustomerID:         identity.CustomerID,
	}
	if identity.IsGuest() {
		sid := identity.SessionID
		payload.SessionID = &sid
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartOfferAccepted,
		AggregateType: enums.AggregateCart,
		AggregateID:   *snap.CartID,
		Actor:         actor,
		Data:          payload,
		OccurredAt:    data.AcceptedAt,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit cart offer accepted event")
	}
	return nil
}

func matchProduct(products []models.CartOfferProduct, productID uuid.UUID, variantID *uuid.UUID) *models.CartOfferProduct {
	for i := range products {
		p := &products[i]
		if p.ProductID != productID {
			continue
		}
		if p.VariantID != nil && (variantID == nil || *variantID != *p.VariantID) {
			continue
		}
		return p
	}
	return nil
}
