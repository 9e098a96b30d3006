package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entities/pkg/sqlite"
	"github.com/mesh-intelligence/entities/pkg/types"
)

func TestNewBackend_SaveAndRead(t *testing.T) {
	var store types.Store = sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	defer store.Detach()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "birds", []types.Entity{
		{ID: "1", Label: types.StringPtr("Robin"), Version: 1, State: types.StateOffline,
			Properties: []types.Property{{Name: "color", Value: "red"}}},
	}))

	got, ok, err := store.GetByIndex(ctx, "birds", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, "Robin", got.LabelOr(""))

	color, _ := got.Property("color")
	assert.Equal(t, "red", color)
}

func TestNewBackend_DetachedStore(t *testing.T) {
	store := sqlite.NewBackend()
	_, err := store.GetCount(context.Background(), "birds")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
