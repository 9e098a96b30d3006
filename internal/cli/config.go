package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/entities/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// envPrefix namespaces environment overrides, e.g. ENTITIES_LOG_LEVEL.
	envPrefix = "ENTITIES"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyLogLevel        = "log_level"
	cfgKeyJournalMode     = "sqlite.journal_mode"
	cfgKeyBusyTimeoutMS   = "sqlite.busy_timeout_ms"
	cfgKeyColumnCacheSize = "sqlite.column_cache_size"

	defaultLogLevel = "warn"
)

// envKeys are the config keys that can be overridden from the environment.
// data_dir is resolved by internal/paths, where config.yaml outranks the
// environment.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeyLogLevel,
	cfgKeyJournalMode,
	cfgKeyBusyTimeoutMS,
	cfgKeyColumnCacheSize,
}

// settings is the decoded content of config.yaml plus environment overrides.
type settings struct {
	types.Config `mapstructure:",squash"`
	LogLevel     string `mapstructure:"log_level"`
}

// loadSettings reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error.
func loadSettings(configDir string) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return settings{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}
