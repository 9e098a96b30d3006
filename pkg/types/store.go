package types

import (
	"context"
	"errors"
)

// Store defines the entity list storage engine. Callers attach to a backend,
// read and write lists, and detach when done.
//
// Reads of an unknown list are not errors: they return empty results. Every
// mutating call runs in a single transaction and rebuilds the ordinal index
// of every list before it commits.
type Store interface {
	// Attach opens the backend described by config. Creates DataDir if it
	// does not exist. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach,
	// operations return ErrStoreDetached.
	Detach() error

	// Save merges a batch of entities into list, creating the list and any
	// property columns named by the first entity. An empty batch is a no-op.
	Save(ctx context.Context, list string, entities []Entity) error

	// GetEntities returns every entity of list ordered by index.
	GetEntities(ctx context.Context, list string) ([]SavedEntity, error)

	// GetByID returns the entity with the given id; ok is false when the
	// list or the id is unknown.
	GetByID(ctx context.Context, list, id string) (entity SavedEntity, ok bool, err error)

	// GetAllByProperty returns the entities whose property equals value.
	// When list has no such property, an empty value matches every entity
	// and any other value matches none.
	GetAllByProperty(ctx context.Context, list, property, value string) ([]SavedEntity, error)

	// GetByIndex returns the entity at the 0-based position index; ok is
	// false when the list is unknown or index is out of range.
	GetByIndex(ctx context.Context, list string, index int) (entity SavedEntity, ok bool, err error)

	// GetCount returns the number of entities in list.
	GetCount(ctx context.Context, list string) (int, error)

	// Delete removes the entity with the given id from every list.
	Delete(ctx context.Context, id string) error

	// Clear drops every list and the list registry.
	Clear(ctx context.Context) error

	// AddList registers an empty list. No-op if the list is known.
	AddList(ctx context.Context, list string) error

	// GetLists returns the names of all known lists in sorted order.
	GetLists(ctx context.Context) ([]string, error)

	// UpdateListHash records the content hash of a known list. Unknown
	// lists are ignored.
	UpdateListHash(ctx context.Context, list, hash string) error

	// GetListHash returns the stored content hash; ok is false when the
	// list is unknown or no hash was recorded.
	GetListHash(ctx context.Context, list string) (hash string, ok bool, err error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Operation errors.
var (
	ErrInvalidListName = errors.New("invalid list name")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidProperty = errors.New("invalid property")
	ErrInvalidState    = errors.New("invalid entity state")
)
