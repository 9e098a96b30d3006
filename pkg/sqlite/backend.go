// Package sqlite provides the public API for the SQLite entity store.
// It exposes the factory function while keeping implementation details
// internal.
package sqlite

import (
	"github.com/mesh-intelligence/entities/internal/sqlite"
	"github.com/mesh-intelligence/entities/pkg/types"
)

var _ types.Store = (*Backend)(nil)

// Backend is the SQLite implementation of types.Store. Beyond the Store
// interface it can export and import lists as JSONL files.
type Backend = sqlite.Backend

// Option configures a store created by NewBackend.
type Option = sqlite.Option

// WithLogger and WithRegisterer re-export the backend options.
var (
	WithLogger     = sqlite.WithLogger
	WithRegisterer = sqlite.WithRegisterer
)

// NewBackend creates a new SQLite store instance.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".entities-db",
//	})
//	defer store.Detach()
func NewBackend(opts ...Option) *Backend {
	return sqlite.NewBackend(opts...)
}
