package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/ordernumber"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/tax"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/maps"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponEngine interface {
	Lookup(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error)
	Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Coupon, error)
	Apply(ctx context.Context, tx *gorm.DB, code *models.Coupon, lines []coupons.Line, shopper coupons.Shopper) (coupons.Applied, *coupons.Rejection, error)
	RecordUsage(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, customerID *uuid.UUID, applied coupons.Applied) error
}

type profileLoader interface {
	Profile(ctx context.Context, tx *gorm.DB, customerID *uuid.UUID) (customers.Profile, error)
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PostalCodeResolver fills in a missing postal code. Lookups are best effort.
type PostalCodeResolver interface {
	ResolvePostalCode(ctx context.Context, q maps.AddressQuery) (string, error)
}

type checkoutObserver interface {
	Observe(outcome string, elapsed time.Duration)
	ObserveOrderValue(total float64)
}

// Service turns the shopper's active cart into an order.
type Service interface {
	Checkout(ctx context.Context, identity cart.Identity, req Request, prov Provenance) (*orders.OrderDetail, error)
}

// Request is the checkout body.
type Request struct {
	BillingAddress  helpers.Address  `json:"billing_address"`
	ShippingAddress *helpers.Address `json:"shipping_address,omitempty"`
	SameAsBilling   bool             `json:"same_as_billing"`
	PaymentMethod   string           `json:"payment_method" validate:"required,max=50"`
	ShippingMethod  string           `json:"shipping_method" validate:"required,max=50"`
	CustomerNote    *string          `json:"customer_note,omitempty" validate:"omitempty,max=2000"`
	CouponCode      *string          `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
}

// Provenance records where the order came from.
type Provenance struct {
	Source    string
	IPAddress string
	UserAgent string
}

// Deps wires the checkout service.
type Deps struct {
	Tx          txRunner
	Carts       cart.Repository
	Products    product.Repository
	Reservation stockReserver
	Coupons     couponEngine
	Customers   profileLoader
	Accounts    customers.Repository
	Shipping    shipping.Repository
	Tax         tax.Calculator
	Orders      orders.Repository
	Repo        Repository
	Numbers     ordernumber.Generator
	Outbox      outboxPublisher
	Postal      PostalCodeResolver
	Metrics     checkoutObserver
	Logger      *logger.Logger
	Source      string
	Now         func() time.Time
}

type service struct {
	tx          txRunner
	carts       cart.Repository
	products    product.Repository
	reservation stockReserver
	coupons     couponEngine
	customers   profileLoader
	accounts    customers.Repository
	shipping    shipping.Repository
	tax         tax.Calculator
	orders      orders.Repository
	repo        Repository
	numbers     ordernumber.Generator
	outbox      outboxPublisher
	postal      PostalCodeResolver
	metrics     checkoutObserver
	logg        *logger.Logger
	source      string
	now         func() time.Time
}

// NewService builds the checkout service. Postal and Metrics are optional.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Reservation == nil {
		res, err := reservation.NewService(deps.Products)
		if err != nil {
			return nil, err
		}
		deps.Reservation = res
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if deps.Customers == nil {
		return nil, fmt.Errorf("customer service required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if deps.Shipping == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if deps.Tax == nil {
		return nil, fmt.Errorf("tax calculator required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if deps.Numbers == nil {
		return nil, fmt.Errorf("order number generator required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Source == "" {
		deps.Source = "web"
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		tx:          deps.Tx,
		carts:       deps.Carts,
		products:    deps.Products,
		reservation: deps.Reservation,
		coupons:     deps.Coupons,
		customers:   deps.Customers,
		accounts:    deps.Accounts,
		shipping:    deps.Shipping,
		tax:         deps.Tax,
		orders:      deps.Orders,
		repo:        deps.Repo,
		numbers:     deps.Numbers,
		outbox:      deps.Outbox,
		postal:      deps.Postal,
		metrics:     deps.Metrics,
		logg:        deps.Logger,
		source:      deps.Source,
		now:         deps.Now,
	}, nil
}

// Checkout validates the request, prices the locked cart and writes the order,
// its stock decrements, coupon usage and the order_created event in one
// transaction.
func (s *service) Checkout(ctx context.Context, identity cart.Identity, req Request, prov Provenance) (*orders.OrderDetail, error) {
	started := time.Now()
	order, err := s.checkout(ctx, identity, req, prov)
	err = s.finish(ctx, started, order, err)
	if err != nil {
		return nil, err
	}
	return orders.Detail(*order), nil
}

func (s *service) checkout(ctx context.Context, identity cart.Identity, req Request, prov Provenance) (*models.Order, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	req = normalize(req)
	if err := validateRequest(req, identity.IsGuest()); err != nil {
		return nil, err
	}
	billing := s.withPostalCode(ctx, req.BillingAddress)
	shipTo := billing
	if !req.SameAsBilling && req.ShippingAddress != nil {
		shipTo = s.withPostalCode(ctx, *req.ShippingAddress)
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		record, err := carts.FindActive(ctx, identity, true)
		if err != nil {
			return err
		}
		if record == nil || len(record.Items) == 0 {
			return pkgerrors.Violation("cart", "empty_cart", "Cart is empty")
		}
		existing, err := s.repo.WithTx(tx).FindByCartID(ctx, record.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart already checked out")
		}

		methods := s.shipping.WithTx(tx)
		shipMethod, err := methods.ShippingMethodByCode(ctx, req.ShippingMethod)
		if err != nil {
			return err
		}
		payMethod, err := methods.PaymentMethodByCode(ctx, req.PaymentMethod)
		if err != nil {
			return err
		}
		if err := shipping.CheckCompatible(*shipMethod, *payMethod); err != nil {
			return err
		}
		if shipMethod.RequiresAddress && !req.SameAsBilling && req.ShippingAddress == nil {
			return pkgerrors.FieldErrors("shipping address required", map[string]string{
				"shipping_address": "is required for this shipping method",
			})
		}

		productRepo := s.products.WithTx(tx)
		loaded, err := productRepo.LoadItems(ctx, helpers.Refs(record.Items), true)
		if err != nil {
			return err
		}
		if err := helpers.CheckLines(record.Items, loaded); err != nil {
			return err
		}

		profile, err := s.customers.Profile(ctx, tx, identity.CustomerID)
		if err != nil {
			return err
		}
		applied, err := s.applyCoupons(ctx, tx, record, req.CouponCode, profile)
		if err != nil {
			return err
		}

		rates, err := s.tax.WithTx(tx).Rates(ctx, helpers.TaxClassIDs(loaded), shipTo.Jurisdiction())
		if err != nil {
			return err
		}
		lines := make([]pricing.Line, len(record.Items))
		for i, item := range record.Items {
			row := loaded[product.NewRef(item.ProductID, item.VariantID)]
			lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, TaxRate: helpers.TaxRate(row, rates)}
		}
		breakdown := pricing.Assemble(pricing.Input{
			Lines:                lines,
			ShippingMethod:       shipMethod,
			PaymentMethod:        payMethod,
			GroupDiscountPercent: profile.GroupDiscount,
			CouponDiscount:       applied.Discount(),
			FreeShipping:         applied.FreeShipping(),
		})

		contact, err := s.contact(ctx, tx, identity, billing)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderNumber:        number,
			CustomerID:         identity.CustomerID,
			CartID:             &record.ID,
			Status:             enums.OrderStatusPending,
			PaymentStatus:      enums.PaymentStatusPending,
			PaymentMethodCode:  payMethod.Code,
			PaymentMethodName:  payMethod.Name,
			ShippingMethodCode: shipMethod.Code,
			ShippingMethodName: shipMethod.Name,
			Currency:           record.Currency,
			Subtotal:           breakdown.Subtotal,
			TaxTotal:           breakdown.TaxTotal,
			ShippingTotal:      breakdown.ShippingTotal,
			PaymentFee:         breakdown.PaymentFee,
			GroupDiscount:      breakdown.GroupDiscount,
			CouponDiscount:     breakdown.CouponDiscount,
			DiscountTotal:      breakdown.DiscountTotal,
			GrandTotal:         breakdown.GrandTotal,
			CustomerEmail:      contact.email,
			CustomerName:       contact.name,
			CustomerPhone:      contact.phone,
			CustomerNote:       req.CustomerNote,
			Source:             s.sourceOf(prov),
			IPAddress:          optional(prov.IPAddress),
			UserAgent:          optional(prov.UserAgent),
			Items:              orderItems(record.Items, loaded, lines, breakdown),
			Addresses: []models.OrderAddress{
				billing.OrderAddress(enums.AddressBilling),
				shipTo.OrderAddress(enums.AddressShipping),
			},
			History: []models.OrderHistory{{
				Status:  enums.OrderStatusPending,
				Comment: "Order created",
				Actor:   actorOf(identity),
			}},
		}
		if primary := applied.Primary(); primary != nil {
			order.CouponID = &primary.Coupon.ID
			order.CouponCode = primary.Coupon.Code
		}

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := s.reservation.Reserve(ctx, tx, helpers.ReservationRequests(record.Items, loaded)); err != nil {
			return err
		}
		if err := s.coupons.RecordUsage(ctx, tx, order.ID, identity.CustomerID, applied.Cap(breakdown.CouponDiscount)); err != nil {
			return err
		}

		if err := carts.ClearItems(ctx, record.ID); err != nil {
			return err
		}
		if err := carts.SetCoupon(ctx, record.ID, nil); err != nil {
			return err
		}
		if err := carts.MarkStatus(ctx, record.ID, enums.CartStatusConverted, s.now().UTC()); err != nil {
			return err
		}
		return s.emitCreated(ctx, tx, identity, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// applyCoupons evaluates the code coupon (the request override first, then
// the one attached to the cart) and the automatic discounts. A code coupon
// that no longer applies fails the checkout.
func (s *service) applyCoupons(ctx context.Context, tx *gorm.DB, record *models.Cart, override *string, profile customers.Profile) (coupons.Applied, error) {
	var code *models.Coupon
	var err error
	switch {
	case override != nil:
		code, err = s.coupons.Lookup(ctx, tx, *override)
		if err != nil {
			return coupons.Applied{}, err
		}
	case record.CouponID != nil:
		code, err = s.coupons.Load(ctx, tx, *record.CouponID)
		if err != nil {
			return coupons.Applied{}, err
		}
		if code == nil {
			return coupons.Applied{}, pkgerrors.Violation("coupon_code", "invalid", "Coupon code is invalid")
		}
	}

	categories, err := s.products.WithTx(tx).CategoryIDs(ctx, cart.ProductIDs(record.Items))
	if err != nil {
		return coupons.Applied{}, err
	}
	shopper := coupons.Shopper{CustomerID: profile.CustomerID, GroupIDs: profile.GroupIDs}
	applied, rej, err := s.coupons.Apply(ctx, tx, code, cart.CouponLines(record.Items, categories), shopper)
	if err != nil {
		return coupons.Applied{}, err
	}
	if rej != nil {
		return coupons.Applied{}, coupons.RejectionError(rej)
	}
	return applied, nil
}

type contactInfo struct {
	email string
	name  string
	phone *string
}

// contact prefers the account details of a signed-in customer and falls back
// to the billing address.
func (s *service) contact(ctx context.Context, tx *gorm.DB, identity cart.Identity, billing helpers.Address) (contactInfo, error) {
	info := contactInfo{name: billing.FullName(), phone: billing.Phone}
	if billing.Email != nil {
		info.email = *billing.Email
	}
	if identity.CustomerID == nil {
		return info, nil
	}
	customer, err := s.accounts.WithTx(tx).FindByID(ctx, *identity.CustomerID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return info, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer account not found")
		}
		return info, err
	}
	info.email = customer.Email
	if name := strings.TrimSpace(customer.FirstName + " " + customer.LastName); name != "" {
		info.name = name
	}
	if customer.Phone != nil {
		info.phone = customer.Phone
	}
	return info, nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, identity cart.Identity, order *models.Order) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{CustomerID: identity.CustomerID},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerID:    order.CustomerID,
			CustomerEmail: order.CustomerEmail,
			CustomerName:  order.CustomerName,
			GrandTotal:    order.GrandTotal,
			Currency:      order.Currency,
			CouponCode:    order.CouponCode,
			ItemCount:     len(order.Items),
			PlacedAt:      order.CreatedAt,
		},
		Version:    1,
		OccurredAt: s.now().UTC(),
	}
	if identity.IsGuest() {
		event.Actor.SessionID = strings.TrimSpace(identity.SessionID)
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created event")
	}
	return nil
}

// withPostalCode asks the resolver for a missing postal code. Failures are
// logged and the address is used as submitted.
func (s *service) withPostalCode(ctx context.Context, a helpers.Address) helpers.Address {
	if s.postal == nil || a.PostalCode != nil {
		return a
	}
	code, err := s.postal.ResolvePostalCode(ctx, a.PostalQuery())
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "postal code lookup failed")
		return a
	}
	if code = strings.TrimSpace(code); code != "" {
		a.PostalCode = &code
	}
	return a
}

// finish records metrics and maps unexpected failures onto a generic
// internal error. Business and validation errors pass through untouched.
func (s *service) finish(ctx context.Context, started time.Time, order *models.Order, err error) error {
	outcome := "success"
	if err != nil {
		switch pkgerrors.CodeOf(err) {
		case pkgerrors.CodeValidation, pkgerrors.CodeBusinessRule, pkgerrors.CodeUnauthorized:
			outcome = "rejected"
		case pkgerrors.CodeConflict:
			outcome = "conflict"
		default:
			outcome = "error"
			s.logg.Error(ctx, "checkout failed", err)
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout failed")
		}
	}
	if s.metrics != nil {
		s.metrics.Observe(outcome, time.Since(started))
		if order != nil && err == nil {
			total, _ := order.GrandTotal.Float64()
			s.metrics.ObserveOrderValue(total)
		}
	}
	if err != nil {
		return err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"grand_total":  order.GrandTotal.StringFixed(2),
	}), "order placed")
	return nil
}

func (s *service) sourceOf(prov Provenance) string {
	if src := strings.TrimSpace(prov.Source); src != "" {
		return src
	}
	return s.source
}

func orderItems(items []models.CartItem, loaded map[product.Ref]product.Item, priced []pricing.Line, breakdown pricing.Breakdown) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, item := range items {
		row := loaded[product.NewRef(item.ProductID, item.VariantID)]
		options := item.Options
		if options == nil {
			options = types.SelectedOptions{}
		}
		line := breakdown.Lines[i]
		out[i] = models.OrderItem{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           row.Name(),
			SKU:            row.SKU(),
			Options:        options,
			ImageURL:       row.ImageURL(),
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			Subtotal:       line.Subtotal,
			TaxRate:        priced[i].TaxRate,
			TaxAmount:      line.TaxAmount,
			DiscountAmount: line.DiscountAmount,
			LineTotal:      line.LineTotal,
			CartOfferID:    item.CartOfferID,
			OfferData:      item.OfferData,
			Position:       i,
		}
	}
	return out
}

func actorOf(identity cart.Identity) string {
	if identity.IsGuest() {
		return "guest"
	}
	return "customer"
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
