package models

// Employee is a person who can check items out of the stockroom.
type Employee struct {
	EmployeeID     int64   `gorm:"column:employee_id;primaryKey;autoIncrement" json:"employee_id"`
	EmployeeNumber string  `gorm:"column:employee_number;not null;uniqueIndex" json:"employee_number"`
	FirstName      string  `gorm:"column:first_name;not null" json:"first_name"`
	MiddleName     *string `gorm:"column:middle_name" json:"middle_name"`
	LastName       string  `gorm:"column:last_name;not null" json:"last_name"`
	DepartmentID   int64   `gorm:"column:department_id;not null" json:"department_id"`
}

func (Employee) TableName() string { return "employees" }
