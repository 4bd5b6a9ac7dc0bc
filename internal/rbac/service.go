// Package rbac resolves what a user may do from their roles.
package rbac

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

type permissionSource interface {
	ListPermissionNames(ctx context.Context, userID int64) ([]string, error)
}

// Authorizer answers permission checks for the HTTP layer.
type Authorizer interface {
	Permissions(ctx context.Context, userID int64) ([]string, error)
	Allowed(ctx context.Context, userID int64, permission enums.Permission) (bool, error)
}

type service struct {
	source permissionSource
}

func NewService(source permissionSource) (Authorizer, error) {
	if source == nil {
		return nil, fmt.Errorf("permission source required")
	}
	return &service{source: source}, nil
}

func (s *service) Permissions(ctx context.Context, userID int64) ([]string, error) {
	names, err := s.source.ListPermissionNames(ctx, userID)
	if err != nil {
		return nil, db.MapError(err, "", "load permissions")
	}
	return names, nil
}

// Allowed grants everything to holders of the admin permission.
func (s *service) Allowed(ctx context.Context, userID int64, permission enums.Permission) (bool, error) {
	names, err := s.Permissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == permission.String() || name == enums.PermissionAdmin.String() {
			return true, nil
		}
	}
	return false, nil
}
