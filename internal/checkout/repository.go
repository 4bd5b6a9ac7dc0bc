package checkout

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var transactionOrdering = pagination.NewOrdering("transaction_id", "total_items", "created_at")

// Repository exposes the queries the checkout workflow runs inside its unit of work.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEmployee(ctx context.Context, id int64) (*models.Employee, error)
	FindDepartment(ctx context.Context, id int64) (*models.Department, error)
	FindItem(ctx context.Context, id int64) (*models.Item, error)
	FindCategory(ctx context.Context, id int64) (*models.ItemCategory, error)
	FindUnit(ctx context.Context, id int64) (*models.UnitOfMeasure, error)
	CreateTransaction(ctx context.Context, header *models.CheckoutTransaction) error
	CreateLines(ctx context.Context, lines []models.CheckoutItem) error
	FindTransaction(ctx context.Context, id int64) (*models.CheckoutTransaction, error)
	LockItems(ctx context.Context, ids []int64) ([]models.Item, error)
	LockItem(ctx context.Context, id int64) (*models.Item, error)
	DecrementStock(ctx context.Context, itemID int64, qty int) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]models.CheckoutTransaction, error)
}

// ListFilter narrows a transaction listing.
type ListFilter struct {
	pagination.ListParams
	EmployeeID   int64
	DepartmentID int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Where("employee_id = ?", id).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *repository) FindDepartment(ctx context.Context, id int64) (*models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).Where("department_id = ?", id).First(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *repository) FindItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("item_id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindCategory(ctx context.Context, id int64) (*models.ItemCategory, error) {
	var category models.ItemCategory
	if err := r.db.WithContext(ctx).Where("category_id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) FindUnit(ctx context.Context, id int64) (*models.UnitOfMeasure, error) {
	var unit models.UnitOfMeasure
	if err := r.db.WithContext(ctx).Where("uom_id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) CreateTransaction(ctx context.Context, header *models.CheckoutTransaction) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(header).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.CheckoutItem) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) FindTransaction(ctx context.Context, id int64) (*models.CheckoutTransaction, error) {
	var txn models.CheckoutTransaction
	err := r.db.WithContext(ctx).
		Preload("CheckoutItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("transaction_id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// LockItems takes row locks in ascending id order so concurrent checkouts
// touching overlapping items always queue in the same order.
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

// DecrementStock subtracts qty only while enough stock remains. It reports
// false when the guard rejected the update.
func (r *repository) DecrementStock(ctx context.Context, itemID int64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("item_id = ? AND quantity >= ?", itemID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.CheckoutTransaction, error) {
	q := r.db.WithContext(ctx).Model(&models.CheckoutTransaction{})
	if filter.EmployeeID > 0 {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.DepartmentID > 0 {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	var txns []models.CheckoutTransaction
	err := q.Scopes(transactionOrdering.Scope(filter.ListParams)).
		Preload("CheckoutItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
