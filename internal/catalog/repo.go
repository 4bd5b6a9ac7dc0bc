package catalog

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
)

var (
	categoryOrdering = pagination.NewOrdering("category_id", "name")
	unitOrdering     = pagination.NewOrdering("uom_id", "name", "abbreviation")
)

// Repository persists item categories and units of measure.
type Repository interface {
	CreateCategory(ctx context.Context, category *models.ItemCategory) error
	FindCategory(ctx context.Context, id int64) (*models.ItemCategory, error)
	ListCategories(ctx context.Context, params pagination.ListParams) ([]models.ItemCategory, error)
	CreateUnit(ctx context.Context, unit *models.UnitOfMeasure) error
	FindUnit(ctx context.Context, id int64) (*models.UnitOfMeasure, error)
	ListUnits(ctx context.Context, params pagination.ListParams) ([]models.UnitOfMeasure, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCategory(ctx context.Context, category *models.ItemCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) FindCategory(ctx context.Context, id int64) (*models.ItemCategory, error) {
	var category models.ItemCategory
	if err := r.db.WithContext(ctx).Where("category_id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ListCategories(ctx context.Context, params pagination.ListParams) ([]models.ItemCategory, error) {
	var categories []models.ItemCategory
	if err := r.db.WithContext(ctx).Scopes(categoryOrdering.Scope(params)).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) CreateUnit(ctx context.Context, unit *models.UnitOfMeasure) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repository) FindUnit(ctx context.Context, id int64) (*models.UnitOfMeasure, error) {
	var unit models.UnitOfMeasure
	if err := r.db.WithContext(ctx).Where("uom_id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) ListUnits(ctx context.Context, params pagination.ListParams) ([]models.UnitOfMeasure, error) {
	var units []models.UnitOfMeasure
	if err := r.db.WithContext(ctx).Scopes(unitOrdering.Scope(params)).Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}
