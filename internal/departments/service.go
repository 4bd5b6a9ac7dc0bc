package departments

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes department management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Department, error)
	Get(ctx context.Context, id int64) (*models.Department, error)
	List(ctx context.Context, params pagination.ListParams) ([]models.Department, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Department, error)
	Delete(ctx context.Context, id int64) error
}

// CreateInput is the payload for a new department.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateInput patches only the fields that are set.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService wires a department service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("department repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func notFound(id int64) string {
	return fmt.Sprintf("Department with id %d not found.", id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Department, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	dept := &models.Department{Name: name, Description: input.Description}
	if err := s.repo.Create(ctx, dept); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "department name already exists")
		}
		return nil, db.MapError(err, "", "create department")
	}
	return dept, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, notFound(id), "load department")
	}
	return dept, nil
}

func (s *service) List(ctx context.Context, params pagination.ListParams) ([]models.Department, error) {
	depts, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.MapError(err, "", "list departments")
	}
	return depts, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Department, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	var updated *models.Department
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.MapError(err, notFound(id), "load department")
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "department name already exists")
				}
				return db.MapError(err, "", "update department")
			}
		}
		dept, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.MapError(err, notFound(id), "reload department")
		}
		updated = dept
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
		return db.MapError(err, notFound(id), "delete department")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound(id))
	}
	return nil
}
