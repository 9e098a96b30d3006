package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string       `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite,omitempty" mapstructure:"sqlite"`
}

// SQLiteConfig holds SQLite-specific tuning. Zero values select defaults.
type SQLiteConfig struct {
	JournalMode     string `json:"journal_mode,omitempty" yaml:"journal_mode,omitempty" mapstructure:"journal_mode"`
	BusyTimeoutMS   int    `json:"busy_timeout_ms,omitempty" yaml:"busy_timeout_ms,omitempty" mapstructure:"busy_timeout_ms"`
	ColumnCacheSize int    `json:"column_cache_size,omitempty" yaml:"column_cache_size,omitempty" mapstructure:"column_cache_size"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Journal modes accepted in SQLiteConfig.JournalMode.
const (
	JournalWAL      = "wal"
	JournalDelete   = "delete"
	JournalTruncate = "truncate"
	JournalMemory   = "memory"
)

// Defaults applied by the SQLiteConfig accessors.
const (
	DefaultJournalMode     = JournalWAL
	DefaultBusyTimeoutMS   = 5000
	DefaultColumnCacheSize = 128
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrJournalModeUnknown = errors.New("unknown journal mode")
	ErrBusyTimeoutInvalid = errors.New("busy timeout must not be negative")
	ErrCacheSizeInvalid   = errors.New("column cache size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownJournalModes = map[string]bool{
	JournalWAL:      true,
	JournalDelete:   true,
	JournalTruncate: true,
	JournalMemory:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return c.SQLite.Validate()
}

// Validate checks the SQLite tuning values. Empty and zero values are valid
// and select the defaults.
func (s SQLiteConfig) Validate() error {
	if s.JournalMode != "" && !knownJournalModes[s.JournalMode] {
		return ErrJournalModeUnknown
	}
	if s.BusyTimeoutMS < 0 {
		return ErrBusyTimeoutInvalid
	}
	if s.ColumnCacheSize < 0 {
		return ErrCacheSizeInvalid
	}
	return nil
}

// GetJournalMode returns the configured journal mode or DefaultJournalMode.
func (s SQLiteConfig) GetJournalMode() string {
	if s.JournalMode == "" {
		return DefaultJournalMode
	}
	return s.JournalMode
}

// GetBusyTimeoutMS returns the busy timeout in milliseconds.
func (s SQLiteConfig) GetBusyTimeoutMS() int {
	if s.BusyTimeoutMS == 0 {
		return DefaultBusyTimeoutMS
	}
	return s.BusyTimeoutMS
}

// GetColumnCacheSize returns how many lists keep their column set cached.
func (s SQLiteConfig) GetColumnCacheSize() int {
	if s.ColumnCacheSize == 0 {
		return DefaultColumnCacheSize
	}
	return s.ColumnCacheSize
}
