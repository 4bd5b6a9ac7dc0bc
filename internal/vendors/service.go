package vendors

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// Service exposes vendor management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Vendor, error)
	Get(ctx context.Context, id int64) (*models.Vendor, error)
	List(ctx context.Context, params pagination.ListParams) ([]models.Vendor, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Vendor, error)
	Delete(ctx context.Context, id int64) error
}

type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &service{repo: repo}, nil
}

func notFound(id int64) string {
	return fmt.Sprintf("Vendor with id %d not found.", id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Vendor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	vendor := &models.Vendor{Name: name, Description: input.Description}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, mapWriteError(err, "create vendor")
	}
	return vendor, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, notFound(id), "load vendor")
	}
	return vendor, nil
}

func (s *service) List(ctx context.Context, params pagination.ListParams) ([]models.Vendor, error) {
	vendors, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.MapError(err, "", "list vendors")
	}
	return vendors, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Vendor, error) {
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
	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, mapWriteError(err, "update vendor")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFound(id))
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return db.MapError(err, notFound(id), "delete vendor")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound(id))
	}
	return nil
}

func mapWriteError(err error, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "vendor name already exists")
	}
	return db.MapError(err, "", op)
}
