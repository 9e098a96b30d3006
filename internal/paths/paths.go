// Package paths locates the files of an entities installation: the config
// directory holding config.yaml and the data directory holding the SQLite
// database.
package paths

import (
	"os"
	"path/filepath"
)

// File and directory names.
const (
	ConfigFileName     = "config.yaml"
	DatabaseFileName   = "entities.db"
	DefaultDataDirName = ".entities-db"

	appName = "entities"
)

// Environment variables consulted during resolution.
const (
	EnvConfigDir = "ENTITIES_CONFIG_DIR"
	EnvDataDir   = "ENTITIES_DATA_DIR"
)

// Source names the setting a directory was taken from.
type Source string

// Sources in precedence order. Not every chain uses every source.
const (
	SourceFlag    Source = "flag"
	SourceConfig  Source = "config"
	SourceEnv     Source = "env"
	SourceDefault Source = "default"
)

// Location is a resolved absolute directory and where it came from.
type Location struct {
	Dir    string
	Source Source
}

// ConfigFile returns the config.yaml path inside the location.
func (l Location) ConfigFile() string {
	return ConfigFile(l.Dir)
}

// Database returns the SQLite file path inside the location.
func (l Location) Database() string {
	return Database(l.Dir)
}

// userConfigDir is replaced in tests.
var userConfigDir = os.UserConfigDir

// candidate is one link of a precedence chain.
type candidate struct {
	source Source
	value  string
}

// firstSet returns the first non-empty candidate made absolute, or the
// result of fallback when every candidate is empty.
func firstSet(chain []candidate, fallback func() (string, error)) (Location, error) {
	for _, c := range chain {
		if c.value == "" {
			continue
		}
		dir, err := filepath.Abs(c.value)
		if err != nil {
			return Location{}, err
		}
		return Location{Dir: dir, Source: c.source}, nil
	}
	dir, err := fallback()
	if err != nil {
		return Location{}, err
	}
	return Location{Dir: dir, Source: SourceDefault}, nil
}

// ResolveConfigDir applies --config-dir > ENTITIES_CONFIG_DIR > the user
// config directory (os.UserConfigDir) joined with "entities".
func ResolveConfigDir(flag string) (Location, error) {
	return firstSet([]candidate{
		{SourceFlag, flag},
		{SourceEnv, os.Getenv(EnvConfigDir)},
	}, func() (string, error) {
		dir, err := userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	})
}

// ResolveDataDir applies --data-dir > data_dir from config.yaml >
// ENTITIES_DATA_DIR > $(CWD)/.entities-db, so each working tree gets its own
// lists unless told otherwise.
func ResolveDataDir(flag, configValue string) (Location, error) {
	return firstSet([]candidate{
		{SourceFlag, flag},
		{SourceConfig, configValue},
		{SourceEnv, os.Getenv(EnvDataDir)},
	}, func() (string, error) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, DefaultDataDirName), nil
	})
}

// ConfigFile returns the path of config.yaml inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// Database returns the path of the SQLite file inside dataDir. An empty
// dataDir means the current directory.
func Database(dataDir string) string {
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DatabaseFileName)
}
