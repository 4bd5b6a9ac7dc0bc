// Package dbtest opens migrated in-memory sqlite databases for package tests.
package dbtest

import (
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AllModels lists every table owned by the service in dependency order.
var AllModels = []any{
	&models.Department{},
	&models.ItemCategory{},
	&models.UnitOfMeasure{},
	&models.Vendor{},
	&models.Employee{},
	&models.Item{},
	&models.CheckoutTransaction{},
	&models.CheckoutItem{},
	&models.ScannedInvoice{},
	&models.ScannedInvoiceItem{},
	&models.InventoryAdjustmentLog{},
	&models.Permission{},
	&models.Role{},
	&models.User{},
}

// Open returns a client over a fresh shared-cache sqlite database. A single
// pooled connection keeps concurrent transactions strictly serialized.
func Open(t testing.TB, name string) *db.Client {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(AllModels...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db.Wrap(conn)
}

// Fixture seeds the reference rows most stock tests need.
type Fixture struct {
	Department models.Department
	Category   models.ItemCategory
	Unit       models.UnitOfMeasure
	Vendor     models.Vendor
	Employee   models.Employee
}

// Seed inserts one department, category, unit, vendor and employee.
func Seed(t testing.TB, conn *gorm.DB) Fixture {
	t.Helper()
	f := Fixture{
		Department: models.Department{Name: "Maintenance"},
		Category:   models.ItemCategory{Name: "Safety"},
		Unit:       models.UnitOfMeasure{Name: "Each", Abbreviation: "ea"},
		Vendor:     models.Vendor{Name: "Acme Supply"},
	}
	mustCreate(t, conn, &f.Department)
	mustCreate(t, conn, &f.Category)
	mustCreate(t, conn, &f.Unit)
	mustCreate(t, conn, &f.Vendor)

	f.Employee = models.Employee{
		EmployeeNumber: "E0000001",
		FirstName:      "Dana",
		LastName:       "Reyes",
		DepartmentID:   f.Department.DepartmentID,
	}
	mustCreate(t, conn, &f.Employee)
	return f
}

// Item inserts an item owned by the fixture with the given name and stock.
func (f Fixture) Item(t testing.TB, conn *gorm.DB, name string, qty int) models.Item {
	t.Helper()
	item := models.Item{
		ItemCode:        "IC-" + name,
		Name:            name,
		Category:        f.Category.CategoryID,
		OwnerDepartment: f.Department.DepartmentID,
		UnitOfMeasure:   f.Unit.UOMID,
		Quantity:        qty,
	}
	mustCreate(t, conn, &item)
	return item
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}
