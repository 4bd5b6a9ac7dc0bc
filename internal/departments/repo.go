package departments

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
)

var departmentOrdering = pagination.NewOrdering("department_id", "name", "created_at")

// Repository manages department persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dept *models.Department) error
	FindByID(ctx context.Context, id int64) (*models.Department, error)
	List(ctx context.Context, params pagination.ListParams) ([]models.Department, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) (bool, error)
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

func (r *repository) Create(ctx context.Context, dept *models.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	var dept models.Department
	if err := r.db.WithContext(ctx).Where("department_id = ?", id).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *repository) List(ctx context.Context, params pagination.ListParams) ([]models.Department, error) {
	var depts []models.Department
	if err := r.db.WithContext(ctx).Scopes(departmentOrdering.Scope(params)).Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Department{}).Where("department_id = ?", id).Updates(updates).Error
}

// Delete reports false when no row matched.
func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("department_id = ?", id).Delete(&models.Department{})
	return res.RowsAffected > 0, res.Error
}
