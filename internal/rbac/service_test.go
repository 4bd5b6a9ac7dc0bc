package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	perms map[int64][]string
	err   error
}

func (s stubSource) ListPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	return s.perms[userID], s.err
}

func TestAllowed(t *testing.T) {
	svc, err := NewService(stubSource{perms: map[int64][]string{
		1: {"inventory.read"},
		2: {"admin"},
	}})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := svc.Allowed(ctx, 1, enums.PermissionInventoryRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Allowed(ctx, 1, enums.PermissionCheckoutCreate)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Allowed(ctx, 2, enums.PermissionCheckoutCreate)
	require.NoError(t, err)
	assert.True(t, ok, "admin implies every permission")

	ok, err = svc.Allowed(ctx, 3, enums.PermissionInventoryRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowedMapsStoreErrors(t *testing.T) {
	svc, err := NewService(stubSource{err: errors.New("connection reset")})
	require.NoError(t, err)
	_, err = svc.Allowed(context.Background(), 1, enums.PermissionAdmin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
