package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entities/pkg/types"
)

func TestListHashLifecycle(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	// Unknown: updates are ignored.
	require.NoError(t, b.UpdateListHash(ctx, "birds", "h0"))
	_, ok, err := b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.False(t, ok)

	lists, err := b.GetLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists, "hash update must not register a list")

	// Registered without hash.
	require.NoError(t, b.AddList(ctx, "birds"))
	_, ok, err = b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.False(t, ok)

	// Registered with hash, then overwritten.
	require.NoError(t, b.UpdateListHash(ctx, "birds", "h1"))
	hash, ok, err := b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h1", hash)

	require.NoError(t, b.UpdateListHash(ctx, "birds", "h2"))
	hash, _, err = b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.Equal(t, "h2", hash)

	// Saving keeps the hash.
	require.NoError(t, b.Save(ctx, "birds", []types.Entity{offline("1", "Robin", 1)}))
	hash, _, err = b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.Equal(t, "h2", hash)

	// Clear returns the list to unknown.
	require.NoError(t, b.Clear(ctx))
	_, ok, err = b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddList(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.AddList(ctx, "trees"))
	require.NoError(t, b.AddList(ctx, "birds"))
	require.NoError(t, b.AddList(ctx, "birds"), "adding a known list is a no-op")

	lists, err := b.GetLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"birds", "trees"}, lists)

	entities, err := b.GetEntities(ctx, "birds")
	require.NoError(t, err)
	assert.Empty(t, entities)

	_, ok, err := b.GetByIndex(ctx, "birds", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddList_KeepsExistingEntities(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Save(ctx, "birds", []types.Entity{offline("1", "Robin", 1)}))
	require.NoError(t, b.UpdateListHash(ctx, "birds", "h"))
	require.NoError(t, b.AddList(ctx, "birds"))

	n, err := b.GetCount(ctx, "birds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hash, ok, err := b.GetListHash(ctx, "birds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h", hash)
}

func TestAddList_InvalidName(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	for _, name := range []string{"", "__position_birds", "sqlite_sequence"} {
		assert.ErrorIs(t, b.AddList(ctx, name), types.ErrInvalidListName, "name %q", name)
	}
}

func TestListNamesWithQuotes(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	list := `odd "list" name; DROP TABLE x`
	require.NoError(t, b.Save(ctx, list, []types.Entity{offline("1", "One", 1, types.Property{Name: `we"ird`, Value: "v"})}))

	got, ok, err := b.GetByID(ctx, list, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []types.Property{{Name: `we"ird`, Value: "v"}}, got.Properties)

	lists, err := b.GetLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{list}, lists)
}
