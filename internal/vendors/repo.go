package vendors

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
)

var vendorOrdering = pagination.NewOrdering("vendor_id", "name")

// Repository manages vendor persistence.
type Repository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	FindByID(ctx context.Context, id int64) (*models.Vendor, error)
	List(ctx context.Context, params pagination.ListParams) ([]models.Vendor, error)
	Update(ctx context.Context, id int64, updates map[string]any) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("vendor_id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) List(ctx context.Context, params pagination.ListParams) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := r.db.WithContext(ctx).Scopes(vendorOrdering.Scope(params)).Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// Update reports false when no row matched.
func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("vendor_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	if len(updates) == 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("vendor_id = ?", id).Updates(updates).Error
	return true, err
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("vendor_id = ?", id).Delete(&models.Vendor{})
	return res.RowsAffected > 0, res.Error
}
