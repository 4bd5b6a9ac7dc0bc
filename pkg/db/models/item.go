package models

// Item is a stocked product with its on-hand quantity.
type Item struct {
	ItemID            int64   `gorm:"column:item_id;primaryKey;autoIncrement" json:"item_id"`
	ItemCode          string  `gorm:"column:item_code;not null" json:"item_code"`
	Name              string  `gorm:"column:name;not null" json:"name"`
	Description       *string `gorm:"column:description" json:"description"`
	Category          int64   `gorm:"column:category;not null" json:"category"`
	VendorID          *int64  `gorm:"column:vendor_id" json:"vendor_id"`
	OwnerDepartment   int64   `gorm:"column:owner_department;not null" json:"owner_department"`
	HasBarcode        bool    `gorm:"column:has_barcode;not null;default:false" json:"has_barcode"`
	Barcode           *string `gorm:"column:barcode" json:"barcode"`
	ImagePath         *string `gorm:"column:image_path" json:"image_path"`
	UnitOfMeasure     int64   `gorm:"column:unit_of_measure;not null" json:"unit_of_measure"`
	Quantity          int     `gorm:"column:quantity;not null;default:0" json:"quantity"`
	LowStockThreshold int     `gorm:"column:low_stock_threshold;not null;default:0" json:"low_stock_threshold"`
}

func (Item) TableName() string { return "items" }
