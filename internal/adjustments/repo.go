package adjustments

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
)

var logOrdering = pagination.NewOrdering("log_id", "item_id", "adjusted_at")

// Repository manages persistence for inventory adjustment logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.InventoryAdjustmentLog) error
	FindByID(ctx context.Context, id int64) (*models.InventoryAdjustmentLog, error)
	List(ctx context.Context, filter ListFilter) ([]models.InventoryAdjustmentLog, error)
}

// ListFilter narrows a log listing.
type ListFilter struct {
	pagination.ListParams
	ItemID         int64
	AdjustmentType string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an adjustment log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.InventoryAdjustmentLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.InventoryAdjustmentLog, error) {
	var entry models.InventoryAdjustmentLog
	if err := r.db.WithContext(ctx).Where("log_id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.InventoryAdjustmentLog, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryAdjustmentLog{})
	if filter.ItemID > 0 {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.AdjustmentType != "" {
		q = q.Where("adjustment_type = ?", filter.AdjustmentType)
	}
	var entries []models.InventoryAdjustmentLog
	if err := q.Scopes(logOrdering.Scope(filter.ListParams)).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
