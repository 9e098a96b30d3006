package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/entities/internal/paths"
	"github.com/mesh-intelligence/entities/pkg/sqlite"
	"github.com/mesh-intelligence/entities/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend  string             `yaml:"backend"`
	DataDir  string             `yaml:"data_dir,omitempty"`
	LogLevel string             `yaml:"log_level,omitempty"`
	SQLite   types.SQLiteConfig `yaml:"sqlite"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize entities storage",
		Long:  "Create the configuration directory with a default config.yaml, then create the data directory and database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configLoc, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return sysError(fmt.Errorf("resolve config dir: %w", err))
			}
			if err := os.MkdirAll(configLoc.Dir, 0o755); err != nil {
				return sysError(fmt.Errorf("create config directory: %w", err))
			}

			dataLoc, err := a.resolveDataDir()
			if err != nil {
				return sysError(fmt.Errorf("resolve data dir: %w", err))
			}

			// Only an explicit --data-dir is pinned in the new config.
			pinned := ""
			if dataLoc.Source == paths.SourceFlag {
				pinned = dataLoc.Dir
			}
			configPath := configLoc.ConfigFile()
			dbPath := dataLoc.Database()
			if err := writeConfigIfMissing(configPath, pinned); err != nil {
				return sysError(fmt.Errorf("write config: %w", err))
			}
			if err := a.withStore(func(*sqlite.Backend) error { return nil }); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"config":   configPath,
					"data":     dataLoc.Dir,
					"database": dbPath,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "entities initialized")
			fmt.Fprintln(out, "  config:  ", configPath)
			fmt.Fprintln(out, "  database:", dbPath)
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		SQLite: types.SQLiteConfig{
			JournalMode:     types.DefaultJournalMode,
			BusyTimeoutMS:   types.DefaultBusyTimeoutMS,
			ColumnCacheSize: types.DefaultColumnCacheSize,
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
