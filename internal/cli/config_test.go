package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entities/pkg/types"
)

func TestLoadSettings_MissingFile(t *testing.T) {
	t.Setenv("ENTITIES_LOG_LEVEL", "")
	s, err := loadSettings(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Backend)
	assert.Equal(t, "", s.DataDir)
	assert.Equal(t, defaultLogLevel, s.LogLevel)
	assert.Equal(t, types.SQLiteConfig{}, s.SQLite)
}

func TestLoadSettings_File(t *testing.T) {
	t.Setenv("ENTITIES_LOG_LEVEL", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`backend: sqlite
data_dir: /srv/entities
log_level: debug
sqlite:
  journal_mode: delete
  busy_timeout_ms: 250
  column_cache_size: 8
`), 0o644))

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/entities", s.DataDir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, types.SQLiteConfig{
		JournalMode:     types.JournalDelete,
		BusyTimeoutMS:   250,
		ColumnCacheSize: 8,
	}, s.SQLite)
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: info\n"), 0o644))
	t.Setenv("ENTITIES_LOG_LEVEL", "error")
	t.Setenv("ENTITIES_SQLITE_BUSY_TIMEOUT_MS", "42")

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "error", s.LogLevel)
	assert.Equal(t, 42, s.SQLite.BusyTimeoutMS)
}

func TestLoadSettings_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: [unclosed\n"), 0o644))

	_, err := loadSettings(dir)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "list", "birds")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "list=birds")

	buf.Reset()
	logger, err = newLogger(&buf, "")
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	_, err = newLogger(&buf, "chatty")
	assert.Error(t, err)
}

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
		wantErr bool
	}{
		{name: "empty", input: "  \n", wantIDs: nil},
		{name: "array", input: `[{"id":"a"},{"id":"b"}]`, wantIDs: []string{"a", "b"}},
		{name: "lines", input: "{\"id\":\"a\"}\n\n{\"id\":\"b\"}\n", wantIDs: []string{"a", "b"}},
		{name: "bad record", input: "{\"id\":\"a\"}\n{\"id\":7}\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEntities([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
