package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestItemsMigrationGuardsStock(t *testing.T) {
	assertContains(t, readMigration(t, "create_items"), []string{
		"CREATE TABLE IF NOT EXISTS items",
		"CHECK (quantity >= 0)",
		"CHECK (low_stock_threshold >= 0)",
		"REFERENCES unit_of_measures(uom_id)",
		"DROP TABLE IF EXISTS items",
	})
}

func TestStockMovementMigrationConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_stock_movements"), []string{
		"CONSTRAINT uq_transaction_line UNIQUE (transaction_id, line_number)",
		"CONSTRAINT uq_scan_line UNIQUE (scan_id, line_number)",
		"CONSTRAINT ck_checkout_items_quantity CHECK (quantity > 0)",
		"adjustment_type = 'checkout' AND checkout_item_id IS NOT NULL AND scanned_invoice_item_id IS NULL",
		"adjustment_type = 'invoice' AND scanned_invoice_item_id IS NOT NULL AND checkout_item_id IS NULL",
		"adjustment_type = 'manual' AND checkout_item_id IS NULL AND scanned_invoice_item_id IS NULL",
		"DROP TABLE IF EXISTS inventory_adjustment_logs",
		"DROP TABLE IF EXISTS checkout_transactions",
	})
}

func TestSeedMigrationGrantsKnownPermissions(t *testing.T) {
	assertContains(t, readMigration(t, "seed_roles_permissions"), []string{
		"'inventory.read'",
		"'inventory.write'",
		"'checkout.create'",
		"'admin'",
		"'clerk'",
		"'viewer'",
	})
}
