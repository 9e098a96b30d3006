package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/entities/pkg/types"
)

// listExists reports whether list is registered.
func listExists(ctx context.Context, q querier, list string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM "+registryTable+" WHERE list_name = ?", list).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking list %q: %w", list, err)
	}
	return true, nil
}

// listFolding returns a registered list whose name equals list ignoring ASCII
// case, the folding SQLite applies to table names.
func listFolding(ctx context.Context, q querier, list string) (string, bool, error) {
	var name string
	err := q.QueryRowContext(ctx,
		"SELECT list_name FROM "+registryTable+" WHERE list_name = ? COLLATE NOCASE LIMIT 1", list).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("checking list %q: %w", list, err)
	}
	return name, true, nil
}

// listNames returns every registered list in name order.
func listNames(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT list_name FROM "+registryTable+" ORDER BY list_name")
	if err != nil {
		return nil, fmt.Errorf("loading lists: %w", err)
	}
	defer rows.Close()

	lists := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning list name: %w", err)
		}
		lists = append(lists, name)
	}
	return lists, rows.Err()
}

// GetLists returns the names of all known lists in sorted order.
func (b *Backend) GetLists(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return listNames(ctx, b.db)
}

// UpdateListHash overwrites the content hash of list. The update is ignored
// when list is not registered.
func (b *Backend) UpdateListHash(ctx context.Context, list, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	res, err := b.db.ExecContext(ctx,
		"UPDATE "+registryTable+" SET hash = ? WHERE list_name = ?", hash, list)
	if err != nil {
		return fmt.Errorf("updating hash of list %q: %w", list, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		b.logger.Debug("hash update ignored for unknown list", "list", list)
	}
	return nil
}

// GetListHash returns the stored content hash of list. ok is false when the
// list is unknown or has no hash.
func (b *Backend) GetListHash(ctx context.Context, list string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", false, types.ErrStoreDetached
	}

	var hash sql.NullString
	err := b.db.QueryRowContext(ctx,
		"SELECT hash FROM "+registryTable+" WHERE list_name = ?", list).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading hash of list %q: %w", list, err)
	}
	return hash.String, hash.Valid, nil
}

// AddList registers an empty list so its hash can be recorded before any
// entity is saved to it. Known lists are left untouched.
func (b *Backend) AddList(ctx context.Context, list string) error {
	if err := types.ValidateListName(list); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := b.ensureList(ctx, tx, list); err != nil {
			return err
		}
		return b.rebuildIndexes(ctx, tx)
	})
}
