package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubUserConfigDir(t *testing.T, dir string, err error) {
	t.Helper()
	orig := userConfigDir
	t.Cleanup(func() { userConfigDir = orig })
	userConfigDir = func() (string, error) { return dir, err }
}

func TestResolveConfigDir(t *testing.T) {
	stubUserConfigDir(t, "/home/u/.config", nil)

	tests := []struct {
		name       string
		flag       string
		env        string
		wantDir    string
		wantSource Source
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config", SourceFlag},
		{"env when no flag", "", "/env/config", "/env/config", SourceEnv},
		{"user config dir by default", "", "", "/home/u/.config/entities", SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, Location{Dir: tt.wantDir, Source: tt.wantSource}, got)
		})
	}
}

func TestResolveConfigDir_UserConfigDirError(t *testing.T) {
	stubUserConfigDir(t, "", errors.New("no home"))
	t.Setenv(EnvConfigDir, "")

	_, err := ResolveConfigDir("")
	assert.Error(t, err)

	// An explicit setting never consults the platform.
	got, err := ResolveConfigDir("/cfg")
	require.NoError(t, err)
	assert.Equal(t, "/cfg", got.Dir)
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name        string
		flag        string
		configValue string
		env         string
		want        Location
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", Location{"/flag/data", SourceFlag}},
		{"config wins over env", "", "/config/data", "/env/data", Location{"/config/data", SourceConfig}},
		{"env when flag and config empty", "", "", "/env/data", Location{"/env/data", SourceEnv}},
		{"working directory by default", "", "", "", Location{filepath.Join(cwd, DefaultDataDirName), SourceDefault}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RelativeValuesBecomeAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "relative/env")
	t.Setenv(EnvDataDir, "")

	cfg, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Dir), "config dir %s", cfg.Dir)
	assert.Equal(t, SourceEnv, cfg.Source)

	data, err := ResolveDataDir("", "relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(data.Dir), "data dir %s", data.Dir)
	assert.Equal(t, SourceConfig, data.Source)
}

func TestFileLocations(t *testing.T) {
	loc := Location{Dir: "/srv/entities"}
	assert.Equal(t, filepath.Join("/srv/entities", "config.yaml"), loc.ConfigFile())
	assert.Equal(t, filepath.Join("/srv/entities", "entities.db"), loc.Database())
	assert.Equal(t, filepath.Join(".", "entities.db"), Database(""))
}
