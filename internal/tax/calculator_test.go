package tax

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestRateTablePrefersStateThenPriority(t *testing.T) {
	db := dbtest.Open(t)
	standard := uuid.New()
	reduced := uuid.New()
	untaxed := uuid.New()
	ca := "CA"

	for _, row := range []models.TaxRate{
		{TaxClassID: standard, Country: "US", Rate: decimal.RequireFromString("5")},
		{TaxClassID: standard, Country: "US", State: &ca, Rate: decimal.RequireFromString("7.25")},
		{TaxClassID: reduced, Country: "US", Rate: decimal.RequireFromString("1"), Priority: 1},
		{TaxClassID: reduced, Country: "US", Rate: decimal.RequireFromString("2"), Priority: 5},
		{TaxClassID: untaxed, Country: "DE", Rate: decimal.RequireFromString("19")},
	} {
		row := row
		require.NoError(t, db.Create(&row).Error)
	}

	table := NewRateTable(db)
	rates, err := table.Rates(context.Background(), []uuid.UUID{standard, reduced, untaxed}, Jurisdiction{Country: "us", State: "ca"})
	require.NoError(t, err)

	require.True(t, rates[standard].Equal(decimal.RequireFromString("7.25")))
	require.True(t, rates[reduced].Equal(decimal.RequireFromString("2")))
	_, ok := rates[untaxed]
	require.False(t, ok)

	rates, err = table.Rates(context.Background(), []uuid.UUID{standard}, Jurisdiction{Country: "US", State: "NY"})
	require.NoError(t, err)
	require.True(t, rates[standard].Equal(decimal.RequireFromString("5")))
}

func TestRateTableWithoutCountryIsEmpty(t *testing.T) {
	rates, err := NewRateTable(dbtest.Open(t)).Rates(context.Background(), []uuid.UUID{uuid.New()}, Jurisdiction{})
	require.NoError(t, err)
	require.Empty(t, rates)
}
