package models

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// InventoryAdjustmentLog is the append-only record of one quantity change.
type InventoryAdjustmentLog struct {
	LogID                int64                `gorm:"column:log_id;primaryKey;autoIncrement" json:"log_id"`
	ItemID               int64                `gorm:"column:item_id;not null" json:"item_id"`
	OldQuantity          int                  `gorm:"column:old_quantity;not null" json:"old_quantity"`
	NewQuantity          int                  `gorm:"column:new_quantity;not null" json:"new_quantity"`
	QuantityChanged      int                  `gorm:"column:quantity_changed;not null" json:"quantity_changed"`
	AdjustmentType       enums.AdjustmentType `gorm:"column:adjustment_type;not null" json:"adjustment_type"`
	AdjustedAt           time.Time            `gorm:"column:adjusted_at;autoCreateTime" json:"adjusted_at"`
	ScannedInvoiceItemID *int64               `gorm:"column:scanned_invoice_item_id" json:"scanned_invoice_item_id"`
	CheckoutItemID       *int64               `gorm:"column:checkout_item_id" json:"checkout_item_id"`
}

func (InventoryAdjustmentLog) TableName() string { return "inventory_adjustment_logs" }
