package employees

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
)

var employeeOrdering = pagination.NewOrdering("employee_id", "employee_number", "last_name", "department_id")

// Repository manages employee persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, employee *models.Employee) error
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	List(ctx context.Context, filter ListFilter) ([]models.Employee, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
}

// ListFilter narrows an employee listing.
type ListFilter struct {
	pagination.ListParams
	DepartmentID int64
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Where("employee_id = ?", id).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Employee, error) {
	q := r.db.WithContext(ctx).Model(&models.Employee{})
	if filter.DepartmentID > 0 {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	var employees []models.Employee
	if err := q.Scopes(employeeOrdering.Scope(filter.ListParams)).Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Employee{}).Where("employee_id = ?", id).Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("employee_id = ?", id).Delete(&models.Employee{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Department{}).Where("department_id = ?", id).Count(&count).Error
	return count > 0, err
}
