package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entities/pkg/types"
)

// Internal table naming. List names may not start with types.ReservedPrefix,
// so these never collide with a list table.
const (
	registryTable  = types.ReservedPrefix + "lists"
	positionPrefix = types.ReservedPrefix + "position_"

	// propertyPrefix is prepended to property names to form column names,
	// keeping them apart from the fixed columns below.
	propertyPrefix = "p_"
)

// Fixed columns of every list table.
const (
	colInternalID   = "internal_id"
	colID           = "id"
	colLabel        = "label"
	colVersion      = "version"
	colTrunkVersion = "trunk_version"
	colBranchID     = "branch_id"
	colState        = "state"
)

var createRegistry = `CREATE TABLE IF NOT EXISTS ` + registryTable + ` (
    list_name TEXT PRIMARY KEY,
    hash TEXT
);`

// createListSQL returns the DDL for a list table with no property columns.
func createListSQL(list string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    internal_id INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    label TEXT,
    version INTEGER NOT NULL,
    trunk_version INTEGER,
    branch_id TEXT,
    state INTEGER NOT NULL
);`, quoteIdent(list))
}

// quoteIdent quotes a SQLite identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// propertyColumn returns the quoted column name backing a property.
func propertyColumn(property string) string {
	return quoteIdent(propertyPrefix + property)
}

// ensureList registers list and creates its table if the list is unknown.
// Reports whether the list was created by this call. SQLite table names are
// case insensitive, so a name that differs from a registered list only in
// case is rejected with ErrInvalidListName.
func (b *Backend) ensureList(ctx context.Context, tx *sql.Tx, list string) (bool, error) {
	exists, err := listExists(ctx, tx, list)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	other, found, err := listFolding(ctx, tx, list)
	if err != nil {
		return false, err
	}
	if found {
		return false, fmt.Errorf("%w: %q differs from list %q only in case", types.ErrInvalidListName, list, other)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+registryTable+" (list_name, hash) VALUES (?, NULL)", list); err != nil {
		return false, fmt.Errorf("registering list %q: %w", list, err)
	}
	if _, err := tx.ExecContext(ctx, createListSQL(list)); err != nil {
		return false, fmt.Errorf("creating table for list %q: %w", list, err)
	}
	b.metrics.listsCreated.Inc()
	b.logger.Debug("list created", "list", list)
	return true, nil
}

// ensurePropertyColumns adds a TEXT column for every property of entity that
// the list does not have yet and returns the resulting property names.
// Columns are never dropped. Only the entity given here shapes the schema;
// callers pass the first entity of a batch. The table is introspected inside
// tx, never taken from the cache.
func (b *Backend) ensurePropertyColumns(ctx context.Context, tx *sql.Tx, list string, entity types.Entity) ([]string, error) {
	props, err := readPropertyNames(ctx, tx, list)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, p := range entity.Properties {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: empty name on entity %q", types.ErrInvalidProperty, entity.ID)
		}
		if _, ok := matchProperty(props, p.Name); ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT DEFAULT ''",
			quoteIdent(list), propertyColumn(p.Name))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("adding column %q to list %q: %w", p.Name, list, err)
		}
		props = append(props, p.Name)
		added = append(added, p.Name)
	}

	if len(added) > 0 {
		b.metrics.columnsAdded.Add(float64(len(added)))
		b.logger.Debug("property columns added", "list", list, "columns", added)
	}
	return props, nil
}

// propertyNames returns the property names of list in column order, using
// the column cache while the schema version is unchanged.
func (b *Backend) propertyNames(ctx context.Context, q querier, list string) ([]string, error) {
	version, err := schemaVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	if props, ok := b.columns.get(list, version); ok {
		return props, nil
	}
	props, err := readPropertyNames(ctx, q, list)
	if err != nil {
		return nil, err
	}
	b.columns.set(list, version, props)
	return props, nil
}

// readPropertyNames introspects the list table and returns the names of its
// property columns with the prefix removed.
func readPropertyNames(ctx context.Context, q querier, list string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM pragma_table_info(?) ORDER BY cid", list)
	if err != nil {
		return nil, fmt.Errorf("reading columns of list %q: %w", list, err)
	}
	defer rows.Close()

	var props []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		if strings.HasPrefix(name, propertyPrefix) {
			props = append(props, strings.TrimPrefix(name, propertyPrefix))
		}
	}
	return props, rows.Err()
}

// matchProperty finds name among props. SQLite column names are case
// insensitive, so the comparison is too; the stored spelling is returned.
func matchProperty(props []string, name string) (string, bool) {
	for _, p := range props {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}
