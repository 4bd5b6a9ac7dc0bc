package models

// ItemCategory groups items for reporting.
type ItemCategory struct {
	CategoryID  int64   `gorm:"column:category_id;primaryKey;autoIncrement" json:"category_id"`
	Name        string  `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description *string `gorm:"column:description" json:"description"`
}

func (ItemCategory) TableName() string { return "item_categories" }

// UnitOfMeasure describes how an item is counted.
type UnitOfMeasure struct {
	UOMID        int64   `gorm:"column:uom_id;primaryKey;autoIncrement" json:"uom_id"`
	Name         string  `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Abbreviation string  `gorm:"column:abbreviation;not null;uniqueIndex" json:"abbreviation"`
	Description  *string `gorm:"column:description" json:"description"`
}

func (UnitOfMeasure) TableName() string { return "unit_of_measures" }

// Vendor supplies items and issues invoices.
type Vendor struct {
	VendorID    int64   `gorm:"column:vendor_id;primaryKey;autoIncrement" json:"vendor_id"`
	Name        string  `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description *string `gorm:"column:description" json:"description"`
}

func (Vendor) TableName() string { return "vendors" }
