package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Service manages login accounts.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*UserDTO, error)
	Get(ctx context.Context, id int64) (*UserDTO, error)
}

type service struct {
	repo   *Repository
	hasher passwordHasher
}

func NewService(repo *Repository, hasher passwordHasher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	return &service{repo: repo, hasher: hasher}, nil
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (*UserDTO, error) {
	name := strings.TrimSpace(req.UserName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_name is required")
	}
	roles, err := s.repo.FindRolesByName(ctx, req.Roles)
	if err != nil {
		return nil, db.MapError(err, "", "load roles")
	}
	if len(roles) != len(uniqueNames(req.Roles)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one or more roles do not exist").
			WithDetails(map[string]any{"roles": req.Roles})
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	user := &models.User{
		UserName:       name,
		HashedPassword: hashed,
		Enabled:        true,
		EmployeeID:     req.EmployeeID,
		Roles:          roles,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user name already exists")
		}
		return nil, db.MapError(err, "", "create user")
	}
	dto := FromModel(user)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, fmt.Sprintf("User with id %d not found.", id), "load user")
	}
	dto := FromModel(user)
	return &dto, nil
}

func uniqueNames(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}
