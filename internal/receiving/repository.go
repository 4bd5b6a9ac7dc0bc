package receiving

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var invoiceOrdering = pagination.NewOrdering("scan_id", "invoice_number", "created_at")

// Repository exposes the queries invoice receipt runs inside its unit of work.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVendor(ctx context.Context, id int64) (*models.Vendor, error)
	FindEmployee(ctx context.Context, id int64) (*models.Employee, error)
	FindItem(ctx context.Context, id int64) (*models.Item, error)
	CreateInvoice(ctx context.Context, invoice *models.ScannedInvoice) error
	CreateLines(ctx context.Context, lines []models.ScannedInvoiceItem) error
	FindInvoice(ctx context.Context, id int64) (*models.ScannedInvoice, error)
	LockItems(ctx context.Context, ids []int64) ([]models.Item, error)
	LockItem(ctx context.Context, id int64) (*models.Item, error)
	IncrementStock(ctx context.Context, itemID int64, qty int) error
	List(ctx context.Context, filter ListFilter) ([]models.ScannedInvoice, error)
}

// ListFilter narrows an invoice listing.
type ListFilter struct {
	pagination.ListParams
	VendorID int64
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVendor(ctx context.Context, id int64) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("vendor_id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Where("employee_id = ?", id).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *repository) FindItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("item_id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.ScannedInvoice) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(invoice).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.ScannedInvoiceItem) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) FindInvoice(ctx context.Context, id int64) (*models.ScannedInvoice, error) {
	var invoice models.ScannedInvoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("scan_id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// LockItems locks rows in ascending item_id order, the same order checkout uses.
func (r *repository) LockItems(ctx context.Context, ids []int64) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id IN ?", ids).
		Order("item_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) LockItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) IncrementStock(ctx context.Context, itemID int64, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("item_id = ?", itemID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.ScannedInvoice, error) {
	q := r.db.WithContext(ctx).Model(&models.ScannedInvoice{})
	if filter.VendorID > 0 {
		q = q.Where("vendor_id = ?", filter.VendorID)
	}
	var invoices []models.ScannedInvoice
	err := q.Scopes(invoiceOrdering.Scope(filter.ListParams)).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
