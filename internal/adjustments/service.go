package adjustments

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service records and reads inventory adjustment logs.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.InventoryAdjustmentLog, error)
	Get(ctx context.Context, id int64) (*models.InventoryAdjustmentLog, error)
	List(ctx context.Context, filter ListFilter) ([]models.InventoryAdjustmentLog, error)
}

// RecordInput captures one quantity change and the line that caused it.
type RecordInput struct {
	ItemID               int64
	OldQuantity          int
	NewQuantity          int
	Type                 enums.AdjustmentType
	CheckoutItemID       *int64
	ScannedInvoiceItemID *int64
}

type service struct {
	repo Repository
}

// NewService wires an adjustment service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("adjustment repository required")
	}
	return &service{repo: repo}, nil
}

// Record appends a log entry. When tx is set the write joins that transaction.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.InventoryAdjustmentLog, error) {
	if err := validateRecord(input); err != nil {
		return nil, err
	}

	changed := input.NewQuantity - input.OldQuantity
	if changed < 0 {
		changed = -changed
	}
	entry := &models.InventoryAdjustmentLog{
		ItemID:               input.ItemID,
		OldQuantity:          input.OldQuantity,
		NewQuantity:          input.NewQuantity,
		QuantityChanged:      changed,
		AdjustmentType:       input.Type,
		CheckoutItemID:       input.CheckoutItemID,
		ScannedInvoiceItemID: input.ScannedInvoiceItemID,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, db.MapError(err, "", "insert inventory adjustment log")
	}
	return entry, nil
}

func validateRecord(input RecordInput) error {
	if input.ItemID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid adjustment type %q", input.Type))
	}
	if input.OldQuantity < 0 || input.NewQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "adjusted quantities must not be negative")
	}

	hasCheckout := input.CheckoutItemID != nil
	hasInvoice := input.ScannedInvoiceItemID != nil
	switch input.Type {
	case enums.AdjustmentTypeCheckout:
		if !hasCheckout || hasInvoice {
			return pkgerrors.New(pkgerrors.CodeValidation, "checkout adjustments must reference exactly one checkout line")
		}
		if input.NewQuantity >= input.OldQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "checkout adjustments must decrease stock")
		}
	case enums.AdjustmentTypeInvoice:
		if !hasInvoice || hasCheckout {
			return pkgerrors.New(pkgerrors.CodeValidation, "invoice adjustments must reference exactly one invoice line")
		}
		if input.NewQuantity <= input.OldQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "invoice adjustments must increase stock")
		}
	default:
		if hasCheckout || hasInvoice {
			return pkgerrors.New(pkgerrors.CodeValidation, "manual adjustments cannot reference an origin line")
		}
		if input.NewQuantity == input.OldQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment must change the quantity")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.InventoryAdjustmentLog, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "log id must be positive")
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, fmt.Sprintf("inventory adjustment log with id %d not found.", id), "load inventory adjustment log")
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.InventoryAdjustmentLog, error) {
	if filter.AdjustmentType != "" {
		if _, err := enums.ParseAdjustmentType(filter.AdjustmentType); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment_type filter")
		}
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, db.MapError(err, "", "list inventory adjustment logs")
	}
	return entries, nil
}
