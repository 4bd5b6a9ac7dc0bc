package employees

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes employee management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Employee, error)
	Get(ctx context.Context, id int64) (*models.Employee, error)
	List(ctx context.Context, filter ListFilter) ([]models.Employee, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Employee, error)
	Delete(ctx context.Context, id int64) error
}

type CreateInput struct {
	EmployeeNumber string  `json:"employee_number" validate:"required,max=8"`
	FirstName      string  `json:"first_name" validate:"required,max=50"`
	MiddleName     *string `json:"middle_name" validate:"omitempty,max=50"`
	LastName       string  `json:"last_name" validate:"required,max=50"`
	DepartmentID   int64   `json:"department_id" validate:"required,gt=0"`
}

// UpdateInput patches only the fields that are set.
type UpdateInput struct {
	EmployeeNumber *string `json:"employee_number" validate:"omitempty,min=1,max=8"`
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	MiddleName     *string `json:"middle_name" validate:"omitempty,max=50"`
	LastName       *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	DepartmentID   *int64  `json:"department_id" validate:"omitempty,gt=0"`
}

type service struct {
	tx   txRunner
	repo Repository
}

func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func notFound(id int64) string {
	return fmt.Sprintf("Employee with id %d not found.", id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Employee, error) {
	employee := &models.Employee{
		EmployeeNumber: strings.TrimSpace(input.EmployeeNumber),
		FirstName:      strings.TrimSpace(input.FirstName),
		MiddleName:     input.MiddleName,
		LastName:       strings.TrimSpace(input.LastName),
		DepartmentID:   input.DepartmentID,
	}
	if employee.EmployeeNumber == "" || employee.FirstName == "" || employee.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee_number, first_name and last_name are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureDepartment(ctx, repo, input.DepartmentID); err != nil {
			return err
		}
		if err := repo.Create(ctx, employee); err != nil {
			return mapWriteError(err, "create employee")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, notFound(id), "load employee")
	}
	return employee, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Employee, error) {
	employees, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, db.MapError(err, "", "list employees")
	}
	return employees, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Employee, error) {
	updates := map[string]any{}
	if input.EmployeeNumber != nil {
		updates["employee_number"] = strings.TrimSpace(*input.EmployeeNumber)
	}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.MiddleName != nil {
		updates["middle_name"] = *input.MiddleName
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.DepartmentID != nil {
		updates["department_id"] = *input.DepartmentID
	}
	for _, key := range []string{"employee_number", "first_name", "last_name"} {
		if v, ok := updates[key]; ok && v == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" cannot be empty")
		}
	}

	var updated *models.Employee
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.MapError(err, notFound(id), "load employee")
		}
		if input.DepartmentID != nil {
			if err := s.ensureDepartment(ctx, repo, *input.DepartmentID); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return mapWriteError(err, "update employee")
			}
		}
		employee, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.MapError(err, notFound(id), "reload employee")
		}
		updated = employee
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return db.MapError(err, notFound(id), "delete employee")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound(id))
	}
	return nil
}

func (s *service) ensureDepartment(ctx context.Context, repo Repository, id int64) error {
	exists, err := repo.DepartmentExists(ctx, id)
	if err != nil {
		return db.MapError(err, "", "load department")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Department with id %d not found.", id))
	}
	return nil
}

func mapWriteError(err error, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "employee number already exists")
	}
	return db.MapError(err, "", op)
}
