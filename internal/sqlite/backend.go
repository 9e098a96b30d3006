// Package sqlite implements the SQLite storage backend for entity lists.
//
// Each list is stored in its own table with a fixed set of columns plus one
// text column per property ever saved to it. A registry table records the
// known lists and their content hashes, and a derived position table per list
// maps insertion order to a dense ordinal index.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/entities/internal/paths"
	"github.com/mesh-intelligence/entities/pkg/types"
)

// Backend implements types.Store using a single SQLite database.
// Mutating calls hold the write lock for their whole transaction; reads share
// the read lock.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	columns  *columnCache

	logger  *slog.Logger
	metrics *metrics
}

var _ types.Store = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used by the backend. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRegisterer registers the backend's Prometheus collectors with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(b *Backend) {
		if r == nil {
			return
		}
		if err := b.metrics.register(r); err != nil {
			b.logger.Warn("metrics registration failed", "error", err)
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger:  slog.Default(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (or creates) the database file inside DataDir with the configured pragmas,
// creates the list registry and rebuilds the ordinal indexes of any lists
// already present in the file.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := paths.Database(dataDir)
	db, err := sql.Open("sqlite", dataSourceName(dbPath, config.SQLite))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	columns, err := newColumnCache(config.SQLite.GetColumnCacheSize())
	if err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.columns = columns

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, createRegistry); err != nil {
		b.db = nil
		db.Close()
		return fmt.Errorf("create registry: %w", err)
	}
	if err := b.withTx(ctx, func(tx *sql.Tx) error {
		return b.rebuildIndexes(ctx, tx)
	}); err != nil {
		b.db = nil
		db.Close()
		return fmt.Errorf("rebuild indexes: %w", err)
	}

	b.attached = true
	b.logger.Info("store attached", "path", dbPath, "journal_mode", config.SQLite.GetJournalMode())
	return nil
}

// Detach closes the SQLite connection. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		b.db = nil
	}
	b.columns.purge()
	b.attached = false
	b.logger.Info("store detached", "data_dir", b.config.DataDir)
	return nil
}

// dataSourceName builds a modernc.org/sqlite DSN. Writes take the reserved
// lock at BEGIN so a transaction never fails to upgrade mid-batch.
func dataSourceName(path string, cfg types.SQLiteConfig) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.GetBusyTimeoutMS()))
	q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", cfg.GetJournalMode()))
	q.Add("_pragma", "foreign_keys(on)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}
