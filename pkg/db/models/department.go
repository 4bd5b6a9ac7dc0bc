package models

import "time"

// Department owns items and employees.
type Department struct {
	DepartmentID int64     `gorm:"column:department_id;primaryKey;autoIncrement" json:"department_id"`
	Name         string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description  *string   `gorm:"column:description" json:"description"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Department) TableName() string { return "departments" }
