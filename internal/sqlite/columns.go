package sqlite

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// columnCache remembers the ordered property names of recently used lists so
// reads do not introspect the table schema on every call. Each entry carries
// the schema_version it was read at; an entry from an older schema is a miss,
// so columns added through another connection to the same file are seen.
type columnCache struct {
	lists *lru.Cache[string, columnEntry]
}

type columnEntry struct {
	version int64
	props   []string
}

func newColumnCache(size int) (*columnCache, error) {
	c, err := lru.New[string, columnEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create column cache: %w", err)
	}
	return &columnCache{lists: c}, nil
}

// get returns a copy of the property names cached for list at version.
func (c *columnCache) get(list string, version int64) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.lists.Get(list)
	if !ok || entry.version != version {
		return nil, false
	}
	return append([]string(nil), entry.props...), true
}

func (c *columnCache) set(list string, version int64, props []string) {
	if c == nil {
		return
	}
	c.lists.Add(list, columnEntry{version: version, props: append([]string(nil), props...)})
}

func (c *columnCache) purge() {
	if c == nil {
		return
	}
	c.lists.Purge()
}

// schemaVersion reads the schema cookie of the database file. SQLite bumps it
// on every DDL statement, including ones run by other processes.
func schemaVersion(ctx context.Context, q querier) (int64, error) {
	var v int64
	if err := q.QueryRowContext(ctx, "PRAGMA schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
