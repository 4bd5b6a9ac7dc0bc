package models

import "time"

// ScannedInvoice is the header of a vendor delivery received into stock.
type ScannedInvoice struct {
	ScanID        int64                `gorm:"column:scan_id;primaryKey;autoIncrement" json:"scan_id"`
	InvoiceNumber string               `gorm:"column:invoice_number;not null" json:"invoice_number"`
	VendorID      int64                `gorm:"column:vendor_id;not null" json:"vendor_id"`
	ScannedBy     int64                `gorm:"column:scanned_by;not null" json:"scanned_by"`
	ImageFilePath *string              `gorm:"column:image_file_path" json:"image_file_path"`
	TotalItems    int                  `gorm:"column:total_items;not null" json:"total_items"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Items         []ScannedInvoiceItem `gorm:"foreignKey:ScanID;references:ScanID" json:"items"`
}

func (ScannedInvoice) TableName() string { return "scanned_invoices" }

// ScannedInvoiceItem is one numbered line of a scanned invoice.
type ScannedInvoiceItem struct {
	ScannedInvoiceItemID int64  `gorm:"column:scanned_invoice_item_id;primaryKey;autoIncrement" json:"scanned_invoice_item_id"`
	ScanID               int64  `gorm:"column:scan_id;not null;uniqueIndex:uq_scan_line" json:"scan_id"`
	LineNumber           int    `gorm:"column:line_number;not null;uniqueIndex:uq_scan_line" json:"line_number"`
	ItemID               int64  `gorm:"column:item_id;not null" json:"item_id"`
	ItemCode             string `gorm:"column:item_code;not null" json:"item_code"`
	Quantity             int    `gorm:"column:quantity;not null" json:"quantity"`
}

func (ScannedInvoiceItem) TableName() string { return "scanned_invoice_items" }
