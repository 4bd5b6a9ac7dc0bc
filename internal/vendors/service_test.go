package vendors

import (
	"context"
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorService(t *testing.T) {
	client := dbtest.Open(t, "vendors")
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	grainger, err := svc.Create(ctx, CreateInput{Name: "Grainger"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Fastenal"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Name: "Grainger"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	renamed := "Grainger Industrial"
	got, err := svc.Update(ctx, grainger.VendorID, UpdateInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, got.Name)

	_, err = svc.Update(ctx, 999, UpdateInput{Name: &renamed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := svc.List(ctx, pagination.ListParams{OrderBy: "name", Ascending: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Fastenal", list[0].Name)

	require.NoError(t, svc.Delete(ctx, grainger.VendorID))
	_, err = svc.Get(ctx, grainger.VendorID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
