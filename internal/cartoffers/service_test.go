package cartoffers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type fixture struct {
	conn   *gorm.DB
	carts  cart.Service
	offers *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromGorm(conn)
	products := product.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), nil)

	couponSvc, err := coupons.NewService(coupons.NewRepository(conn), nil)
	require.NoError(t, err)
	customerSvc, err := customers.NewService(client, customers.NewRepository(conn), nil)
	require.NoError(t, err)

	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(cart.Deps{
		Tx:        client,
		Repo:      cartRepo,
		Products:  products,
		Coupons:   couponSvc,
		Customers: customerSvc,
		Outbox:    events,
	})
	require.NoError(t, err)

	offers, err := NewService(Deps{
		Tx:       client,
		Repo:     NewRepository(conn),
		Carts:    cartRepo,
		Cart:     carts,
		Products: products,
		Outbox:   events,
	})
	require.NoError(t, err)
	return fixture{conn: conn, carts: carts, offers: offers}
}

func (f fixture) product(t *testing.T, price string) models.Product {
	t.Helper()
	p := models.Product{
		Name:          "Item " + price,
		SKU:           uuid.NewString(),
		Price:         dec(price),
		StockQuantity: decimal.NewFromInt(50),
	}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f fixture) offer(t *testing.T, priority int, limit *int, products ...models.CartOfferProduct) models.CartOffer {
	t.Helper()
	o := models.CartOffer{
		Name:                  "Bundle",
		Placement:             enums.PlacementCart,
		TriggerType:           enums.TriggerAllProducts,
		Priority:              priority,
		IsActive:              true,
		UsageLimitPerCustomer: limit,
		Products:              products,
	}
	require.NoError(t, f.conn.Create(&o).Error)
	return o
}

func percentOff(productID uuid.UUID, pct string, show enums.OfferShowCondition) models.CartOfferProduct {
	return models.CartOfferProduct{
		ProductID:     productID,
		DiscountType:  enums.AmountPercentage,
		DiscountBase:  enums.DiscountBaseSellingPrice,
		DiscountValue: dec(pct),
		ShowCondition: show,
	}
}

func shopper() cart.Identity {
	return cart.Identity{SessionID: "sess-" + uuid.NewString()}
}

func TestAcceptPersistsServerPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	who := shopper()
	base := f.product(t, "10.00")
	upsell := f.product(t, "20.00")
	o := f.offer(t, 1, nil, percentOff(upsell.ID, "25", enums.ShowAlways))

	_, err := f.carts.AddItem(ctx, who, cart.AddItemInput{ProductID: base.ID, Quantity: decimal.NewFromInt(1)})
	require.NoError(t, err)

	snap, err := f.offers.Accept(ctx, who, AcceptInput{OfferID: o.ID, ProductID: upsell.ID, Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	line := snap.Items[1]
	assert.True(t, line.UnitPrice.Equal(dec("15.00")))
	require.NotNil(t, line.OfferData)
	assert.True(t, line.OfferData.UnitDiscount.Equal(dec("5.00")))
	assert.True(t, snap.Subtotal.Equal(dec("40.00")))

	var stored models.CartItem
	require.NoError(t, f.conn.Where("cart_offer_id = ?", o.ID).Take(&stored).Error)
	assert.True(t, stored.UnitPrice.Equal(dec("15.00")))
	require.NotNil(t, stored.OfferData)
	assert.Equal(t, o.Products[0].ID, stored.OfferData.CartOfferProductID)

	var usage models.CartOfferUsage
	require.NoError(t, f.conn.Where("cart_offer_id = ?", o.ID).Take(&usage).Error)
	assert.Equal(t, 1, usage.UsageCount)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventCartOfferAccepted).Find(&events).Error)
	assert.Len(t, events, 1)

	_, err = f.offers.Accept(ctx, who, AcceptInput{OfferID: o.ID, ProductID: upsell.ID, Quantity: decimal.NewFromInt(1)})
	assert.Equal(t, pkgerrors.CodeBusinessRule, pkgerrors.CodeOf(err), "same offer product cannot be added twice")
}

func TestAcceptCapsQuantity(t *testing.T) {
	f := newFixture(t)
	upsell := f.product(t, "20.00")
	o := f.offer(t, 1, nil, percentOff(upsell.ID, "10", enums.ShowAlways))

	_, err := f.offers.Accept(context.Background(), shopper(), AcceptInput{
		OfferID:   o.ID,
		ProductID: upsell.ID,
		Quantity:  cart.MaxLineQuantity.Add(decimal.NewFromInt(1)),
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestAcceptRejectsProductOutsideOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	upsell := f.product(t, "20.00")
	other := f.product(t, "5.00")
	o := f.offer(t, 1, nil, percentOff(upsell.ID, "10", enums.ShowAlways))

	_, err := f.offers.Accept(ctx, shopper(), AcceptInput{OfferID: o.ID, ProductID: other.ID, Quantity: decimal.NewFromInt(1)})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeBusinessRule, appErr.Code())

	_, err = f.offers.Accept(ctx, shopper(), AcceptInput{OfferID: uuid.New(), ProductID: upsell.ID, Quantity: decimal.NewFromInt(1)})
	assert.Equal(t, pkgerrors.CodeBusinessRule, pkgerrors.CodeOf(err))

	var lines int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&lines).Error)
	assert.Zero(t, lines)
}

func TestResolveIsDeterministicAndRespectsUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	who := shopper()
	base := f.product(t, "10.00")
	first := f.product(t, "8.00")
	second := f.product(t, "6.00")

	limit := 1
	top := f.offer(t, 10, &limit, percentOff(first.ID, "50", enums.ShowAlways))
	fallback := f.offer(t, 1, nil, percentOff(second.ID, "10", enums.ShowAlways))

	_, err := f.carts.AddItem(ctx, who, cart.AddItemInput{ProductID: base.ID, Quantity: decimal.NewFromInt(1)})
	require.NoError(t, err)

	in := ResolveInput{Placement: enums.PlacementCart}
	for i := 0; i < 3; i++ {
		got, err := f.offers.Resolve(ctx, who, in)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, top.ID, got.OfferID)
		require.Len(t, got.Products, 1)
		assert.True(t, got.Products[0].DiscountedPrice.Equal(dec("4.00")))
	}

	_, err = f.offers.Accept(ctx, who, AcceptInput{OfferID: top.ID, ProductID: first.ID, Quantity: decimal.NewFromInt(1)})
	require.NoError(t, err)

	got, err := f.offers.Resolve(ctx, who, in)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fallback.ID, got.OfferID)

	none, err := f.offers.Resolve(ctx, who, ResolveInput{Placement: enums.PlacementCheckout})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestResolveSkipsUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	gone := f.product(t, "8.00")
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", gone.ID).Update("is_active", false).Error)
	f.offer(t, 1, nil, percentOff(gone.ID, "10", enums.ShowAlways))

	got, err := f.offers.Resolve(context.Background(), shopper(), ResolveInput{Placement: enums.PlacementCart})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRejectUnlocksChainedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	who := shopper()
	primary := f.product(t, "30.00")
	consolation := f.product(t, "12.00")

	first := percentOff(primary.ID, "10", enums.ShowAlways)
	second := percentOff(consolation.ID, "30", enums.ShowIfRejected)
	second.Position = 1
	o := f.offer(t, 1, nil, first, second)

	got, err := f.offers.Resolve(ctx, who, ResolveInput{Placement: enums.PlacementCart})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Products, 1)

	require.NoError(t, f.offers.Reject(ctx, who, o.ID))

	got, err = f.offers.Resolve(ctx, who, ResolveInput{Placement: enums.PlacementCart})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Products, 2)
	assert.Equal(t, consolation.ID, got.Products[1].ProductID)

	var usage models.CartOfferUsage
	require.NoError(t, f.conn.Where("cart_offer_id = ?", o.ID).Take(&usage).Error)
	assert.Equal(t, 1, usage.RejectedCount)
	assert.Zero(t, usage.UsageCount)
}
