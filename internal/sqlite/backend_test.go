package sqlite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entities/internal/paths"
	"github.com/mesh-intelligence/entities/pkg/types"
)

// newTestBackend attaches a backend to a fresh temporary directory and
// detaches it when the test ends.
func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(append([]Option{WithLogger(discardLogger())}, opts...)...)
	require.NoError(t, b.Attach(testConfig(t.TempDir())))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func testConfig(dataDir string) types.Config {
	return types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offline(id, label string, version int64, props ...types.Property) types.Entity {
	e := types.Entity{ID: id, Version: version, State: types.StateOffline, Properties: props}
	if label != "" {
		e.Label = types.StringPtr(label)
	}
	return e
}

func online(id, label string, version int64, props ...types.Property) types.Entity {
	e := offline(id, label, version, props...)
	e.State = types.StateOnline
	return e
}

func prop(name, value string) types.Property {
	return types.Property{Name: name, Value: value}
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend(WithLogger(discardLogger()))
	err := b.Attach(testConfig(tmpDir))
	require.NoError(t, err)
	defer b.Detach()

	_, err = os.Stat(paths.Database(tmpDir))
	assert.NoError(t, err, "database file should exist")

	err = b.Attach(testConfig(tmpDir))
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")

	b := NewBackend(WithLogger(discardLogger()))
	require.NoError(t, b.Attach(testConfig(dataDir)))
	defer b.Detach()

	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{
			name:    "empty backend",
			config:  types.Config{DataDir: t.TempDir()},
			wantErr: types.ErrBackendEmpty,
		},
		{
			name:    "unknown backend",
			config:  types.Config{Backend: "postgres", DataDir: t.TempDir()},
			wantErr: types.ErrBackendUnknown,
		},
		{
			name: "unknown journal mode",
			config: types.Config{
				Backend: types.BackendSQLite,
				DataDir: t.TempDir(),
				SQLite:  types.SQLiteConfig{JournalMode: "off-the-books"},
			},
			wantErr: types.ErrJournalModeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend(WithLogger(discardLogger()))
			err := b.Attach(tt.config)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = b.GetLists(context.Background())
			assert.ErrorIs(t, err, types.ErrStoreDetached)
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend(WithLogger(discardLogger()))
	require.NoError(t, b.Attach(testConfig(t.TempDir())))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	ctx := context.Background()
	err := b.Save(ctx, "birds", []types.Entity{offline("1", "Robin", 1)})
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, err = b.GetEntities(ctx, "birds")
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, _, err = b.GetByID(ctx, "birds", "1")
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, err = b.GetCount(ctx, "birds")
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	assert.ErrorIs(t, b.Delete(ctx, "1"), types.ErrStoreDetached)
	assert.ErrorIs(t, b.Clear(ctx), types.ErrStoreDetached)
	assert.ErrorIs(t, b.AddList(ctx, "birds"), types.ErrStoreDetached)
	assert.ErrorIs(t, b.UpdateListHash(ctx, "birds", "h"), types.ErrStoreDetached)
}

func TestBackend_DataSurvivesReattach(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	b := NewBackend(WithLogger(discardLogger()))
	require.NoError(t, b.Attach(testConfig(dataDir)))
	require.NoError(t, b.Save(ctx, "birds", []types.Entity{
		offline("1", "Robin", 1, prop("color", "red")),
		online("2", "Wren", 4, prop("color", "brown")),
	}))
	require.NoError(t, b.AddList(ctx, "trees"))
	require.NoError(t, b.UpdateListHash(ctx, "trees", "md5:abc"))
	require.NoError(t, b.Detach())

	b2 := NewBackend(WithLogger(discardLogger()))
	require.NoError(t, b2.Attach(testConfig(dataDir)))
	defer b2.Detach()

	lists, err := b2.GetLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"birds", "trees"}, lists)

	wren, ok, err := b2.GetByIndex(ctx, "birds", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", wren.ID)
	assert.Equal(t, types.StateOnline, wren.State)
	assert.Equal(t, []types.Property{prop("color", "brown")}, wren.Properties)

	hash, ok, err := b2.GetListHash(ctx, "trees")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "md5:abc", hash)
}

func TestDataSourceName(t *testing.T) {
	dsn := dataSourceName("/tmp/x/entities.db", types.SQLiteConfig{BusyTimeoutMS: 250, JournalMode: types.JournalDelete})

	assert.Contains(t, dsn, "file:/tmp/x/entities.db?")
	assert.Contains(t, dsn, "busy_timeout%28250%29")
	assert.Contains(t, dsn, "journal_mode%28delete%29")
	assert.Contains(t, dsn, "_txlock=immediate")
}
