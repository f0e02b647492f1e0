package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_orders")

	for _, sub := range []string{
		"CONSTRAINT orders_order_number_key UNIQUE (order_number)",
		"CONSTRAINT coupon_usages_order_coupon_key UNIQUE (order_id, coupon_id)",
		"CONSTRAINT order_addresses_order_type_key UNIQUE (order_id, type)",
		"CHECK (grand_total >= 0)",
		"CHECK (line_total = subtotal + tax_amount - discount_amount)",
		"DROP TABLE IF EXISTS orders",
	} {
		require.Contains(t, content, sub)
	}
}

func TestCatalogMigrationKeepsFractionalStock(t *testing.T) {
	content := readMigration(t, "create_catalog")
	require.Contains(t, content, "stock_quantity numeric(12,3)")
	require.Contains(t, content, "CHECK (backorder_limit >= 0)")
}

func TestCartsMigrationRequiresPositiveQuantity(t *testing.T) {
	content := readMigration(t, "create_carts")
	require.Contains(t, content, "CHECK (quantity > 0)")
	require.Contains(t, content, "carts_active_customer_key")
	require.Contains(t, content, "carts_active_session_key")
}

func TestEveryEnumTypeIsDropped(t *testing.T) {
	content := readMigration(t, "create_enums")
	up, down, ok := strings.Cut(content, "-- +goose Down")
	require.True(t, ok)

	for _, line := range strings.Split(up, "\n") {
		if !strings.HasPrefix(line, "CREATE TYPE ") {
			continue
		}
		name := strings.Fields(line)[2]
		require.Contains(t, down, "DROP TYPE IF EXISTS "+name+";")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_init.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "+goose Down")
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Gift Cards!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_gift_cards.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}
