package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponApplier interface {
	Lookup(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error)
	Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Coupon, error)
	Apply(ctx context.Context, tx *gorm.DB, code *models.Coupon, lines []coupons.Line, shopper coupons.Shopper) (coupons.Applied, *coupons.Rejection, error)
}

type profileLoader interface {
	Profile(ctx context.Context, tx *gorm.DB, customerID *uuid.UUID) (customers.Profile, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the cart aggregate. Every mutating call returns the
// recalculated snapshot.
type Service interface {
	Get(ctx context.Context, identity Identity) (*Snapshot, error)
	AddItem(ctx context.Context, identity Identity, input AddItemInput) (*Snapshot, error)
	UpdateItem(ctx context.Context, identity Identity, itemID uuid.UUID, quantity decimal.Decimal) (*Snapshot, error)
	RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*Snapshot, error)
	ApplyCoupon(ctx context.Context, identity Identity, code string) (*Snapshot, error)
	RemoveCoupon(ctx context.Context, identity Identity) (*Snapshot, error)
	Abandon(ctx context.Context, identity Identity) error
	AddOfferLine(ctx context.Context, tx *gorm.DB, identity Identity, line OfferLine) (*Snapshot, error)
	AbandonIdleGuests(ctx context.Context, idleSince time.Time, limit int) (int, error)
}

// AddItemInput is a shopper's add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  decimal.Decimal
	Options   types.SelectedOptions
}

// OfferLine is an accepted cart offer. UnitPrice was computed server side.
type OfferLine struct {
	Item      product.Item
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Offer     types.OfferData
}

// Deps wires the cart service.
type Deps struct {
	Tx        txRunner
	Repo      Repository
	Products  product.Repository
	Coupons   couponApplier
	Customers profileLoader
	Outbox    outboxPublisher
	Logger    *logger.Logger
	Currency  string
	Now       func() time.Time
}

type service struct {
	tx        txRunner
	repo      Repository
	products  product.Repository
	coupons   couponApplier
	customers profileLoader
	outbox    outboxPublisher
	logg      *logger.Logger
	currency  string
	now       func() time.Time
}

func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if deps.Customers == nil {
		return nil, fmt.Errorf("customer service required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Currency == "" {
		deps.Currency = "USD"
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		tx:        deps.Tx,
		repo:      deps.Repo,
		products:  deps.Products,
		coupons:   deps.Coupons,
		customers: deps.Customers,
		outbox:    deps.Outbox,
		logg:      deps.Logger,
		currency:  deps.Currency,
		now:       deps.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, identity Identity) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	var snap *Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.repo.WithTx(tx).FindActive(ctx, identity, false)
		if err != nil {
			return err
		}
		if record == nil {
			snap = emptySnapshot(s.currency)
			return nil
		}
		snap, err = s.recalculate(ctx, tx, record, identity)
		return err
	})
	return snap, err
}

func (s *service) AddItem(ctx context.Context, identity Identity, input AddItemInput) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if err := input.Options.Validate(); err != nil {
		return nil, pkgerrors.FieldErrors("invalid options", map[string]string{"options": err.Error()})
	}

	var snap *Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		item, err := s.products.WithTx(tx).FindItem(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}
		if !item.Active() {
			return pkgerrors.Violation("product_id", "product_unavailable", fmt.Sprintf("%s is no longer available", item.Name()))
		}

		record, err := s.loadOrCreate(ctx, tx, identity)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		ref := item.Ref()

		requested := quantityOf(record.Items, ref, uuid.Nil).Add(input.Quantity)
		if err := withinLimit(requested); err != nil {
			return err
		}
		if err := reservation.Check(reservation.Request{Ref: ref, Name: item.Name(), Quantity: requested}, item.Stock()); err != nil {
			return err
		}

		if existing := mergeable(record.Items, ref, input.Options); existing != nil {
			existing.Quantity = existing.Quantity.Add(input.Quantity)
			if err := repo.UpdateItemQuantity(ctx, record.ID, existing.ID, existing.Quantity); err != nil {
				return err
			}
		} else {
			line := models.CartItem{
				CartID:    record.ID,
				ProductID: ref.ProductID,
				VariantID: ref.VariantPtr(),
				Quantity:  input.Quantity,
				UnitPrice: unitPrice(*item),
				Options:   input.Options,
				Position:  nextPosition(record.Items),
			}
			if err := repo.AddItem(ctx, &line); err != nil {
				return err
			}
			record.Items = append(record.Items, line)
		}

		snap, err = s.recalculate(ctx, tx, record, identity)
		return err
	})
	return snap, err
}

func (s *service) UpdateItem(ctx context.Context, identity Identity, itemID uuid.UUID, quantity decimal.Decimal) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var snap *Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.requireCart(ctx, tx, identity)
		if err != nil {
			return err
		}
		line := findItem(record.Items, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		item, err := s.products.WithTx(tx).FindItem(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return err
		}
		ref := item.Ref()
		requested := quantityOf(record.Items, ref, line.ID).Add(quantity)
		if err := withinLimit(requested); err != nil {
			return err
		}
		if err := reservation.Check(reservation.Request{LineID: line.ID, Ref: ref, Name: item.Name(), Quantity: requested}, item.Stock()); err != nil {
			return err
		}

		if err := s.repo.WithTx(tx).UpdateItemQuantity(ctx, record.ID, line.ID, quantity); err != nil {
			return err
		}
		line.Quantity = quantity

		snap, err = s.recalculate(ctx, tx, record, identity)
		return err
	})
	return snap, err
}

func (s *service) RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	var snap *Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.requireCart(ctx, tx, identity)
		if err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).DeleteItem(ctx, record.ID, itemID); err != nil {
			return err
		}
		kept := record.Items[:0]
		for _, item := range record.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		record.Items = kept

		snap, err = s.recalculate(ctx, tx, record, identity)
		return err
	})
	return snap, err
}

// ApplyCoupon attaches a code after checking it against the current cart.
// The cart only keeps the coupon id; it is evaluated again on every snapshot
// and at checkout.
func (s *service) ApplyCoupon(ctx context.Context, identity Identity, code string) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.FieldErrors("coupon code required", map[string]string{"coupon_code": "is required"})
	}

	var snap *Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.requireCart(ctx, tx, identity)
		if err != nil {
			return err
		}
		if len(record.Items) == 0 {
			return pkgerrors.Violation("cart", "empty_cart", "Cart is empty")
		}

		coupon, err := s.coupons.Lookup(ctx, tx, code)
		if err != nil {
			return err
		}
		shopper, categories, err := s.shopperAndCategories(ctx, tx, record, identity)
		if err != nil {
			return err
		}
		if _, rej, err := s.coupons.Apply(ctx, tx, coupon, CouponLines(record.Items, categories), shopper); err != nil {
			return err
		} else if rej != nil {
			return coupons.RejectionError(rej)
		}

		if err := s.repo.WithTx(tx).SetCoupon(ctx, record.ID, &coupon.ID); err != nil {
			return err
		}
		record.CouponID = &coupon.ID

		snap, err = s.recalculate(ctx, tx, record, identity)
		return err
	})
	return snap, err
}

func (s *service) RemoveCoupon(ctx context.Context, identity Identity) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	var snap *Snapshot
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.requireCart(ctx, tx, identity)
		if err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).SetCoupon(ctx, record.ID, nil); err != nil {
			return err
		}
		record.CouponID = nil

		snap, err = s.recalculate(ctx, tx, record, identity)
		return err
	})
	return snap, err
}

func (s *service) Abandon(ctx context.Context, identity Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.requireCart(ctx, tx, identity)
		if err != nil {
			return err
		}
		return s.abandon(ctx, tx, *record, "shopper")
	})
}

// AddOfferLine appends an accepted offer product. It runs on the caller's
// transaction so the usage counter and the new line commit together.
func (s *service) AddOfferLine(ctx context.Context, tx *gorm.DB, identity Identity, line OfferLine) (*Snapshot, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "offer line requires a transaction")
	}
	if err := validateQuantity(line.Quantity); err != nil {
		return nil, err
	}

	record, err := s.loadOrCreate(ctx, tx, identity)
	if err != nil {
		return nil, err
	}
	for _, item := range record.Items {
		if item.OfferData != nil && item.OfferData.CartOfferProductID == line.Offer.CartOfferProductID {
			return nil, pkgerrors.Violation("offer_id", "offer_already_accepted", "Offer is already in the cart")
		}
	}

	ref := line.Item.Ref()
	requested := quantityOf(record.Items, ref, uuid.Nil).Add(line.Quantity)
	if err := withinLimit(requested); err != nil {
		return nil, err
	}
	if err := reservation.Check(reservation.Request{Ref: ref, Name: line.Item.Name(), Quantity: requested}, line.Item.Stock()); err != nil {
		return nil, err
	}

	offer := line.Offer
	item := models.CartItem{
		CartID:      record.ID,
		ProductID:   ref.ProductID,
		VariantID:   ref.VariantPtr(),
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		Options:     types.SelectedOptions{},
		CartOfferID: &offer.CartOfferID,
		OfferData:   &offer,
		Position:    nextPosition(record.Items),
	}
	if err := s.repo.WithTx(tx).AddItem(ctx, &item); err != nil {
		return nil, err
	}
	record.Items = append(record.Items, item)

	return s.recalculate(ctx, tx, record, identity)
}

// AbandonIdleGuests closes guest carts nobody touched since idleSince.
func (s *service) AbandonIdleGuests(ctx context.Context, idleSince time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	closed := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts, err := s.repo.WithTx(tx).ListIdleGuests(ctx, idleSince, limit)
		if err != nil {
			return err
		}
		for _, record := range carts {
			if err := s.abandon(ctx, tx, record, "idle"); err != nil {
				return err
			}
			closed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}

func (s *service) abandon(ctx context.Context, tx *gorm.DB, record models.Cart, reason string) error {
	now := s.now().UTC()
	if err := s.repo.WithTx(tx).MarkStatus(ctx, record.ID, enums.CartStatusAbandoned, now); err != nil {
		return err
	}
	sessionID := record.SessionID
	event := outbox.DomainEvent{
		EventType:     enums.EventCartAbandoned,
		AggregateType: enums.AggregateCart,
		AggregateID:   record.ID,
		Actor:         &outbox.ActorRef{CustomerID: record.CustomerID},
		Data: payloads.CartAbandonedEvent{
			CartID:      record.ID,
			CustomerID:  record.CustomerID,
			SessionID:   sessionID,
			ItemCount:   len(record.Items),
			Subtotal:    ItemsSubtotal(record.Items),
			Reason:      reason,
			AbandonedAt: now,
		},
		OccurredAt: now,
	}
	if sessionID != nil {
		event.Actor.SessionID = *sessionID
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit cart abandoned event")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_id": record.ID.String(),
		"reason":  reason,
	}), "cart abandoned")
	return nil
}

func (s *service) requireCart(ctx context.Context, tx *gorm.DB, identity Identity) (*models.Cart, error) {
	record, err := s.repo.WithTx(tx).FindActive(ctx, identity, true)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return record, nil
}

func (s *service) loadOrCreate(ctx context.Context, tx *gorm.DB, identity Identity) (*models.Cart, error) {
	repo := s.repo.WithTx(tx)
	record, err := repo.FindActive(ctx, identity, true)
	if err != nil || record != nil {
		return record, err
	}
	record = &models.Cart{
		CustomerID: identity.CustomerID,
		SessionID:  identity.sessionPtr(),
		Status:     enums.CartStatusActive,
		Currency:   s.currency,
	}
	if err := repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) shopperAndCategories(ctx context.Context, tx *gorm.DB, record *models.Cart, identity Identity) (coupons.Shopper, map[uuid.UUID][]uuid.UUID, error) {
	categories, err := s.products.WithTx(tx).CategoryIDs(ctx, ProductIDs(record.Items))
	if err != nil {
		return coupons.Shopper{}, nil, err
	}
	profile, err := s.customers.Profile(ctx, tx, identity.CustomerID)
	if err != nil {
		return coupons.Shopper{}, nil, err
	}
	return coupons.Shopper{CustomerID: profile.CustomerID, GroupIDs: profile.GroupIDs}, categories, nil
}

// recalculate prices the cart without an address or methods chosen, stores
// the derived totals and builds the snapshot.
func (s *service) recalculate(ctx context.Context, tx *gorm.DB, record *models.Cart, identity Identity) (*Snapshot, error) {
	snap := emptySnapshot(record.Currency)
	snap.CartID = &record.ID

	profile, err := s.customers.Profile(ctx, tx, identity.CustomerID)
	if err != nil {
		return nil, err
	}

	var applied coupons.Applied
	if len(record.Items) > 0 {
		categories, err := s.products.WithTx(tx).CategoryIDs(ctx, ProductIDs(record.Items))
		if err != nil {
			return nil, err
		}
		var code *models.Coupon
		if record.CouponID != nil {
			code, err = s.coupons.Load(ctx, tx, *record.CouponID)
			if err != nil {
				return nil, err
			}
			if code == nil {
				snap.CouponRejection = &CouponRejection{Reason: "invalid", Message: "Coupon code is invalid"}
			}
		}
		shopper := coupons.Shopper{CustomerID: profile.CustomerID, GroupIDs: profile.GroupIDs}
		var rej *coupons.Rejection
		applied, rej, err = s.coupons.Apply(ctx, tx, code, CouponLines(record.Items, categories), shopper)
		if err != nil {
			return nil, err
		}
		if rej != nil {
			snap.CouponRejection = &CouponRejection{Reason: string(rej.Reason), Message: rej.Message}
		}
	}

	lines := make([]pricing.Line, len(record.Items))
	for i, item := range record.Items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, TaxRate: money.Zero}
	}
	breakdown := pricing.Assemble(pricing.Input{
		Lines:                lines,
		GroupDiscountPercent: profile.GroupDiscount,
		CouponDiscount:       applied.Discount(),
		FreeShipping:         applied.FreeShipping(),
	})

	record.Subtotal = breakdown.Subtotal
	record.TaxTotal = breakdown.TaxTotal
	record.ShippingTotal = breakdown.ShippingTotal
	record.DiscountTotal = breakdown.DiscountTotal
	record.GrandTotal = breakdown.GrandTotal
	if err := s.repo.WithTx(tx).SaveTotals(ctx, record); err != nil {
		return nil, err
	}

	for i, item := range record.Items {
		snap.Items = append(snap.Items, snapshotItem(item, breakdown.Lines[i].Subtotal))
	}
	snap.ItemCount = len(record.Items)
	for _, res := range applied.Results() {
		snap.Coupons = append(snap.Coupons, AppliedCoupon{
			ID:           res.Coupon.ID,
			Code:         res.Coupon.Code,
			Name:         res.Coupon.Name,
			Amount:       res.Amount,
			FreeShipping: res.FreeShipping,
			Automatic:    res.Coupon.IsAutomatic(),
		})
	}
	snap.Subtotal = breakdown.Subtotal
	snap.TaxTotal = breakdown.TaxTotal
	snap.ShippingTotal = breakdown.ShippingTotal
	snap.GroupDiscount = breakdown.GroupDiscount
	snap.CouponDiscount = breakdown.CouponDiscount
	snap.DiscountTotal = breakdown.DiscountTotal
	snap.GrandTotal = breakdown.GrandTotal
	snap.FreeShipping = applied.FreeShipping()
	return snap, nil
}

// MaxLineQuantity caps how much of one product a cart may hold, across all
// of its lines.
var MaxLineQuantity = decimal.NewFromInt(9999)

func validateQuantity(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return pkgerrors.FieldErrors("quantity must be positive", map[string]string{"quantity": "must be greater than zero"})
	}
	if qty.Exponent() < -3 {
		return pkgerrors.FieldErrors("quantity has too many decimals", map[string]string{"quantity": "at most 3 decimal places"})
	}
	return withinLimit(qty)
}

func withinLimit(qty decimal.Decimal) error {
	if qty.GreaterThan(MaxLineQuantity) {
		return pkgerrors.FieldErrors("quantity too large", map[string]string{"quantity": "at most " + MaxLineQuantity.String()})
	}
	return nil
}

// quantityOf sums the quantity already in the cart for ref, skipping one line.
func quantityOf(items []models.CartItem, ref product.Ref, skip uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.ID == skip {
			continue
		}
		if product.NewRef(item.ProductID, item.VariantID) == ref {
			total = total.Add(item.Quantity)
		}
	}
	return total
}

func mergeable(items []models.CartItem, ref product.Ref, options types.SelectedOptions) *models.CartItem {
	for i := range items {
		item := &items[i]
		if item.CartOfferID != nil {
			continue
		}
		if product.NewRef(item.ProductID, item.VariantID) == ref && item.Options.Equal(options) {
			return item
		}
	}
	return nil
}

func findItem(items []models.CartItem, id uuid.UUID) *models.CartItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func nextPosition(items []models.CartItem) int {
	next := 0
	for _, item := range items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}

// unitPrice snapshots the catalog selling price. Selected options are labels
// only and never move the price.
func unitPrice(item product.Item) decimal.Decimal {
	return money.Round2(item.Price())
}
