package items

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var itemOrdering = pagination.NewOrdering("item_id", "item_code", "name", "quantity", "category", "owner_department")

// Repository manages item persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	FindForUpdate(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter ListFilter) ([]models.Item, error)
	ListLowStock(ctx context.Context, limit int) ([]models.Item, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, model any, column string, id int64) (bool, error)
}

// ListFilter narrows an item listing.
type ListFilter struct {
	pagination.ListParams
	CategoryID   int64
	DepartmentID int64
	VendorID     int64
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

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("item_id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id int64) (*models.Item, error) {
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

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	q := r.db.WithContext(ctx).Model(&models.Item{})
	if filter.CategoryID > 0 {
		q = q.Where("category = ?", filter.CategoryID)
	}
	if filter.DepartmentID > 0 {
		q = q.Where("owner_department = ?", filter.DepartmentID)
	}
	if filter.VendorID > 0 {
		q = q.Where("vendor_id = ?", filter.VendorID)
	}
	var items []models.Item
	if err := q.Scopes(itemOrdering.Scope(filter.ListParams)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListLowStock returns items at or below a positive threshold, emptiest first.
func (r *repository) ListLowStock(ctx context.Context, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("low_stock_threshold > 0 AND quantity <= low_stock_threshold").
		Order("quantity ASC").
		Order("item_id ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Item{}).Where("item_id = ?", id).Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("item_id = ?", id).Delete(&models.Item{})
	return res.RowsAffected > 0, res.Error
}

// Exists checks a referenced row by its primary key column.
func (r *repository) Exists(ctx context.Context, model any, column string, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where(clause.Eq{Column: clause.Column{Name: column}, Value: id}).Count(&count).Error
	return count > 0, err
}
