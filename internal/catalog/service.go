// Package catalog manages the reference data items are classified by.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.ItemCategory, error)
	GetCategory(ctx context.Context, id int64) (*models.ItemCategory, error)
	ListCategories(ctx context.Context, params pagination.ListParams) ([]models.ItemCategory, error)
	CreateUnit(ctx context.Context, input UnitInput) (*models.UnitOfMeasure, error)
	GetUnit(ctx context.Context, id int64) (*models.UnitOfMeasure, error)
	ListUnits(ctx context.Context, params pagination.ListParams) ([]models.UnitOfMeasure, error)
}

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type UnitInput struct {
	Name         string  `json:"name" validate:"required,max=50"`
	Abbreviation string  `json:"abbreviation" validate:"required,max=10"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.ItemCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.ItemCategory{Name: name, Description: input.Description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category name already exists")
		}
		return nil, db.MapError(err, "", "create item category")
	}
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id int64) (*models.ItemCategory, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, db.MapError(err, fmt.Sprintf("Item category with id %d not found.", id), "load item category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context, params pagination.ListParams) ([]models.ItemCategory, error) {
	categories, err := s.repo.ListCategories(ctx, params)
	if err != nil {
		return nil, db.MapError(err, "", "list item categories")
	}
	return categories, nil
}

func (s *service) CreateUnit(ctx context.Context, input UnitInput) (*models.UnitOfMeasure, error) {
	name := strings.TrimSpace(input.Name)
	abbr := strings.TrimSpace(input.Abbreviation)
	if name == "" || abbr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and abbreviation are required")
	}
	unit := &models.UnitOfMeasure{Name: name, Abbreviation: abbr, Description: input.Description}
	if err := s.repo.CreateUnit(ctx, unit); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "unit of measure already exists")
		}
		return nil, db.MapError(err, "", "create unit of measure")
	}
	return unit, nil
}

func (s *service) GetUnit(ctx context.Context, id int64) (*models.UnitOfMeasure, error) {
	unit, err := s.repo.FindUnit(ctx, id)
	if err != nil {
		return nil, db.MapError(err, fmt.Sprintf("Unit of measure with id %d not found.", id), "load unit of measure")
	}
	return unit, nil
}

func (s *service) ListUnits(ctx context.Context, params pagination.ListParams) ([]models.UnitOfMeasure, error) {
	units, err := s.repo.ListUnits(ctx, params)
	if err != nil {
		return nil, db.MapError(err, "", "list units of measure")
	}
	return units, nil
}
