package models

import "time"

// CheckoutTransaction is the header of a stock withdrawal.
type CheckoutTransaction struct {
	TransactionID int64          `gorm:"column:transaction_id;primaryKey;autoIncrement" json:"transaction_id"`
	EmployeeID    int64          `gorm:"column:employee_id;not null" json:"employee_id"`
	DepartmentID  int64          `gorm:"column:department_id;not null" json:"department_id"`
	TotalItems    int            `gorm:"column:total_items;not null" json:"total_items"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	CheckoutItems []CheckoutItem `gorm:"foreignKey:TransactionID;references:TransactionID" json:"checkout_items"`
}

func (CheckoutTransaction) TableName() string { return "checkout_transactions" }

// CheckoutItem is one numbered line of a checkout transaction.
type CheckoutItem struct {
	CheckoutItemID int64 `gorm:"column:checkout_item_id;primaryKey;autoIncrement" json:"checkout_item_id"`
	TransactionID  int64 `gorm:"column:transaction_id;not null;uniqueIndex:uq_transaction_line" json:"transaction_id"`
	LineNumber     int   `gorm:"column:line_number;not null;uniqueIndex:uq_transaction_line" json:"line_number"`
	ItemID         int64 `gorm:"column:item_id;not null" json:"item_id"`
	Quantity       int   `gorm:"column:quantity;not null" json:"quantity"`
	CategoryID     int64 `gorm:"column:category_id;not null" json:"category_id"`
	UnitOfMeasure  int64 `gorm:"column:unit_of_measure;not null" json:"unit_of_measure"`
}

func (CheckoutItem) TableName() string { return "checkout_items" }
