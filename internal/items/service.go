package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/internal/adjustments"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type adjustmentRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input adjustments.RecordInput) (*models.InventoryAdjustmentLog, error)
}

// Service exposes item management and stock reporting.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Item, error)
	Get(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter ListFilter) ([]models.Item, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Item, error)
	Delete(ctx context.Context, id int64) error
	LowStock(ctx context.Context, limit int) ([]LowStockItem, error)
}

type CreateInput struct {
	ItemCode          string  `json:"item_code" validate:"required,max=50"`
	Name              string  `json:"name" validate:"required,max=100"`
	Description       *string `json:"description" validate:"omitempty,max=500"`
	Category          int64   `json:"category" validate:"required,gt=0"`
	VendorID          *int64  `json:"vendor_id" validate:"omitempty,gt=0"`
	OwnerDepartment   int64   `json:"owner_department" validate:"required,gt=0"`
	HasBarcode        bool    `json:"has_barcode"`
	Barcode           *string `json:"barcode" validate:"omitempty,max=100"`
	ImagePath         *string `json:"image_path" validate:"omitempty,max=255"`
	UnitOfMeasure     int64   `json:"unit_of_measure" validate:"required,gt=0"`
	Quantity          int     `json:"quantity" validate:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"gte=0"`
}

// UpdateInput patches only the fields that are set. A quantity change is
// logged as a manual adjustment.
type UpdateInput struct {
	ItemCode          *string `json:"item_code" validate:"omitempty,min=1,max=50"`
	Name              *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description       *string `json:"description" validate:"omitempty,max=500"`
	Category          *int64  `json:"category" validate:"omitempty,gt=0"`
	VendorID          *int64  `json:"vendor_id" validate:"omitempty,gt=0"`
	OwnerDepartment   *int64  `json:"owner_department" validate:"omitempty,gt=0"`
	HasBarcode        *bool   `json:"has_barcode"`
	Barcode           *string `json:"barcode" validate:"omitempty,max=100"`
	ImagePath         *string `json:"image_path" validate:"omitempty,max=255"`
	UnitOfMeasure     *int64  `json:"unit_of_measure" validate:"omitempty,gt=0"`
	Quantity          *int    `json:"quantity" validate:"omitempty,gte=0"`
	LowStockThreshold *int    `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// LowStockItem pairs an item with its stock coverage, quantity divided by threshold.
type LowStockItem struct {
	models.Item
	Coverage decimal.Decimal `json:"coverage"`
}

// ServiceParams wires the item service.
type ServiceParams struct {
	TX          txRunner
	Repo        Repository
	Adjustments adjustmentRecorder
	Metrics     *metrics.StockMetrics
}

type service struct {
	tx          txRunner
	repo        Repository
	adjustments adjustmentRecorder
	metrics     *metrics.StockMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Adjustments == nil {
		return nil, fmt.Errorf("adjustment recorder required")
	}
	return &service{
		tx:          params.TX,
		repo:        params.Repo,
		adjustments: params.Adjustments,
		metrics:     params.Metrics,
	}, nil
}

func notFound(id int64) string {
	return fmt.Sprintf("Item with id %d not found.", id)
}

type reference struct {
	model  any
	column string
	id     int64
	label  string
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Item, error) {
	item := &models.Item{
		ItemCode:          strings.TrimSpace(input.ItemCode),
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		Category:          input.Category,
		VendorID:          input.VendorID,
		OwnerDepartment:   input.OwnerDepartment,
		HasBarcode:        input.HasBarcode,
		Barcode:           input.Barcode,
		ImagePath:         input.ImagePath,
		UnitOfMeasure:     input.UnitOfMeasure,
		Quantity:          input.Quantity,
		LowStockThreshold: input.LowStockThreshold,
	}
	if item.ItemCode == "" || item.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_code and name are required")
	}
	if item.Quantity < 0 || item.LowStockThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity and low_stock_threshold must not be negative")
	}

	refs := []reference{
		{&models.ItemCategory{}, "category_id", input.Category, "Item category"},
		{&models.Department{}, "department_id", input.OwnerDepartment, "Department"},
		{&models.UnitOfMeasure{}, "uom_id", input.UnitOfMeasure, "Unit of measure"},
	}
	if input.VendorID != nil {
		refs = append(refs, reference{&models.Vendor{}, "vendor_id", *input.VendorID, "Vendor"})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureReferences(ctx, repo, refs); err != nil {
			return err
		}
		if err := repo.Create(ctx, item); err != nil {
			return db.MapError(err, "", "create item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, notFound(id), "load item")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, db.MapError(err, "", "list items")
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Item, error) {
	updates, refs, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}

	var (
		updated *models.Item
		moved   int
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.MapError(err, notFound(id), "load item")
		}
		if err := ensureReferences(ctx, repo, refs); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return db.MapError(err, "", "update item")
			}
		}
		if input.Quantity != nil && *input.Quantity != current.Quantity {
			if _, err := s.adjustments.Record(ctx, tx, adjustments.RecordInput{
				ItemID:      id,
				OldQuantity: current.Quantity,
				NewQuantity: *input.Quantity,
				Type:        enums.AdjustmentTypeManual,
			}); err != nil {
				return err
			}
			moved = *input.Quantity - current.Quantity
			if moved < 0 {
				moved = -moved
			}
		}
		item, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.MapError(err, notFound(id), "reload item")
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddUnits(string(enums.AdjustmentTypeManual), moved)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return db.MapError(err, notFound(id), "delete item")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound(id))
	}
	return nil
}

func (s *service) LowStock(ctx context.Context, limit int) ([]LowStockItem, error) {
	rows, err := s.repo.ListLowStock(ctx, limit)
	if err != nil {
		return nil, db.MapError(err, "", "list low stock items")
	}
	out := make([]LowStockItem, 0, len(rows))
	for _, item := range rows {
		out = append(out, LowStockItem{Item: item, Coverage: Coverage(item)})
	}
	return out, nil
}

// Coverage is quantity over threshold rounded to two places. Items without a
// threshold report zero.
func Coverage(item models.Item) decimal.Decimal {
	if item.LowStockThreshold <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(item.Quantity)).
		DivRound(decimal.NewFromInt(int64(item.LowStockThreshold)), 2)
}

func buildUpdates(input UpdateInput) (map[string]any, []reference, error) {
	updates := map[string]any{}
	var refs []reference

	if input.ItemCode != nil {
		code := strings.TrimSpace(*input.ItemCode)
		if code == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item_code cannot be empty")
		}
		updates["item_code"] = code
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		updates["category"] = *input.Category
		refs = append(refs, reference{&models.ItemCategory{}, "category_id", *input.Category, "Item category"})
	}
	if input.VendorID != nil {
		updates["vendor_id"] = *input.VendorID
		refs = append(refs, reference{&models.Vendor{}, "vendor_id", *input.VendorID, "Vendor"})
	}
	if input.OwnerDepartment != nil {
		updates["owner_department"] = *input.OwnerDepartment
		refs = append(refs, reference{&models.Department{}, "department_id", *input.OwnerDepartment, "Department"})
	}
	if input.HasBarcode != nil {
		updates["has_barcode"] = *input.HasBarcode
	}
	if input.Barcode != nil {
		updates["barcode"] = *input.Barcode
	}
	if input.ImagePath != nil {
		updates["image_path"] = *input.ImagePath
	}
	if input.UnitOfMeasure != nil {
		updates["unit_of_measure"] = *input.UnitOfMeasure
		refs = append(refs, reference{&models.UnitOfMeasure{}, "uom_id", *input.UnitOfMeasure, "Unit of measure"})
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold must not be negative")
		}
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}
	return updates, refs, nil
}

func ensureReferences(ctx context.Context, repo Repository, refs []reference) error {
	for _, ref := range refs {
		ok, err := repo.Exists(ctx, ref.model, ref.column, ref.id)
		if err != nil {
			return db.MapError(err, "", "load "+strings.ToLower(ref.label))
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s with id %d not found.", ref.label, ref.id))
		}
	}
	return nil
}
