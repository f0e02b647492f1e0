package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func newOrder(customerID *uuid.UUID, number string, createdAt time.Time) *models.Order {
	total := decimal.RequireFromString("21.00")
	return &models.Order{
		OrderNumber:        number,
		CustomerID:         customerID,
		Status:             enums.OrderStatusPending,
		PaymentStatus:      enums.PaymentStatusPending,
		PaymentMethodCode:  "bank_transfer",
		PaymentMethodName:  "Bank transfer",
		ShippingMethodCode: "flat",
		ShippingMethodName: "Flat rate",
		Currency:           "USD",
		Subtotal:           decimal.RequireFromString("20.00"),
		TaxTotal:           decimal.Zero,
		ShippingTotal:      decimal.RequireFromString("1.00"),
		PaymentFee:         decimal.Zero,
		DiscountTotal:      decimal.Zero,
		GrandTotal:         total,
		CustomerEmail:      "ada@example.com",
		CustomerName:       "Ada L",
		Source:             "web",
		Items: []models.OrderItem{{
			ProductID: uuid.New(),
			Name:      "Mug",
			SKU:       "MUG-1",
			Options:   types.SelectedOptions{},
			UnitPrice: decimal.RequireFromString("10.00"),
			Quantity:  decimal.NewFromInt(2),
			Subtotal:  decimal.RequireFromString("20.00"),
			LineTotal: decimal.RequireFromString("20.00"),
		}},
		Addresses: []models.OrderAddress{
			{Type: enums.AddressBilling, FirstName: "Ada", LastName: "L", AddressLine1: "1 Main", City: "Austin"},
			{Type: enums.AddressShipping, FirstName: "Ada", LastName: "L", AddressLine1: "2 Side", City: "Austin"},
		},
		History:   []models.OrderHistory{{Status: enums.OrderStatusPending, Comment: "Order created", Actor: "customer"}},
		CreatedAt: createdAt,
	}
}

func setup(t *testing.T) (*gorm.DB, Repository, Service) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return conn, repo, svc
}

func TestCreateAndGet(t *testing.T) {
	_, repo, svc := setup(t)
	ctx := context.Background()
	customer := uuid.New()

	order := newOrder(&customer, "SF-20260301-000001", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	detail, err := svc.Get(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "SF-20260301-000001", detail.OrderNumber)
	require.Len(t, detail.Items, 1)
	require.NotNil(t, detail.BillingAddress)
	require.NotNil(t, detail.ShippingAddress)
	assert.Equal(t, "2 Side", detail.ShippingAddress.AddressLine1)
	require.Len(t, detail.History, 1)
	assert.True(t, detail.GrandTotal.Equal(decimal.RequireFromString("21.00")))

	_, err = svc.Get(ctx, uuid.New(), order.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err), "foreign orders are hidden")

	_, err = svc.Get(ctx, customer, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	_, repo, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder(nil, "SF-1", time.Now().UTC())))
	err := repo.Create(ctx, newOrder(nil, "SF-1", time.Now().UTC()))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	_, repo, svc := setup(t)
	ctx := context.Background()
	customer := uuid.New()
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newOrder(&customer, fmt.Sprintf("SF-%d", i), start.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.Create(ctx, newOrder(nil, "SF-guest", start)))

	first, err := svc.List(ctx, customer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, "SF-4", first.Orders[0].OrderNumber)
	assert.Equal(t, "SF-3", first.Orders[1].OrderNumber)
	assert.Equal(t, 1, first.Orders[0].ItemCount)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, customer, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	assert.Equal(t, "SF-2", second.Orders[0].OrderNumber)

	third, err := svc.List(ctx, customer, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, third.Orders, 1)
	assert.Empty(t, third.NextCursor)

	_, err = svc.List(ctx, customer, pagination.Params{Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
