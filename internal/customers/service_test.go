package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(client, NewRepository(client.DB()), logger.Nop())
	require.NoError(t, err)
	return svc, client
}

func TestProfileTakesMaxActiveGroup(t *testing.T) {
	svc, client := newService(t)
	conn := client.DB()

	customer := models.Customer{Email: "vip@example.com", FirstName: "V", LastName: "P"}
	require.NoError(t, conn.Create(&customer).Error)

	silver := models.CustomerGroup{Name: "silver", DiscountPercentage: decimal.NewFromInt(5)}
	gold := models.CustomerGroup{Name: "gold", DiscountPercentage: decimal.NewFromInt(12)}
	retired := models.CustomerGroup{Name: "retired", DiscountPercentage: decimal.NewFromInt(50)}
	for _, g := range []*models.CustomerGroup{&silver, &gold, &retired} {
		require.NoError(t, conn.Create(g).Error)
		require.NoError(t, conn.Create(&models.CustomerGroupMember{CustomerGroupID: g.ID, CustomerID: customer.ID}).Error)
	}
	require.NoError(t, conn.Model(&retired).Update("is_active", false).Error)

	profile, err := svc.Profile(context.Background(), nil, &customer.ID)
	require.NoError(t, err)
	require.True(t, profile.GroupDiscount.Equal(decimal.NewFromInt(12)), profile.GroupDiscount.String())
	require.ElementsMatch(t, []uuid.UUID{silver.ID, gold.ID}, profile.GroupIDs)

	guest, err := svc.Profile(context.Background(), nil, nil)
	require.NoError(t, err)
	require.True(t, guest.GroupDiscount.IsZero())
	require.Nil(t, guest.CustomerID)
}

func TestRefreshStatsIgnoresCancelledOrders(t *testing.T) {
	svc, client := newService(t)
	conn := client.DB()

	customer := models.Customer{Email: "c@example.com", FirstName: "C", LastName: "D"}
	require.NoError(t, conn.Create(&customer).Error)

	for i, tc := range []struct {
		status enums.OrderStatus
		total  string
	}{
		{enums.OrderStatusPending, "10.50"},
		{enums.OrderStatusCompleted, "20.25"},
		{enums.OrderStatusCancelled, "99.00"},
	} {
		order := models.Order{
			OrderNumber:        uuid.NewString(),
			CustomerID:         &customer.ID,
			Status:             tc.status,
			PaymentMethodCode:  "card",
			PaymentMethodName:  "Card",
			ShippingMethodCode: "std",
			ShippingMethodName: "Standard",
			GrandTotal:         decimal.RequireFromString(tc.total),
			CustomerEmail:      customer.Email,
			CustomerName:       "C D",
			Source:             "storefront",
		}
		require.NoError(t, conn.Create(&order).Error, "order %d", i)
	}

	stats, err := svc.RefreshStats(context.Background(), customer.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalOrders)
	require.True(t, stats.TotalSpent.Equal(decimal.RequireFromString("30.75")))
	require.NotNil(t, stats.LastOrderAt)

	var reloaded models.Customer
	require.NoError(t, conn.First(&reloaded, "id = ?", customer.ID).Error)
	require.Equal(t, 2, reloaded.TotalOrders)
	require.True(t, reloaded.TotalSpent.Equal(decimal.RequireFromString("30.75")))

	again, err := svc.RefreshStats(context.Background(), customer.ID)
	require.NoError(t, err)
	require.Equal(t, stats.TotalOrders, again.TotalOrders)
}
