package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// positionTable returns the quoted name of the derived position table of list.
func positionTable(list string) string {
	return quoteIdent(positionPrefix + list)
}

// rebuildIndexes drops and recreates the position table of every registered
// list. Positions are dense, 1-based and follow insertion order (ascending
// internal_id). It runs inside the caller's transaction so readers never see
// a list whose positions lag behind its rows.
func (b *Backend) rebuildIndexes(ctx context.Context, tx *sql.Tx) error {
	start := time.Now()

	lists, err := listNames(ctx, tx)
	if err != nil {
		return err
	}

	for _, list := range lists {
		pos := positionTable(list)
		stmts := []string{
			"DROP TABLE IF EXISTS " + pos,
			"CREATE TABLE " + pos + " (internal_id INTEGER PRIMARY KEY, position INTEGER NOT NULL UNIQUE)",
			fmt.Sprintf("INSERT INTO %s (internal_id, position) SELECT internal_id, ROW_NUMBER() OVER (ORDER BY internal_id) FROM %s",
				pos, quoteIdent(list)),
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("rebuilding index of list %q: %w", list, err)
			}
		}
	}

	elapsed := time.Since(start)
	b.metrics.rebuildSeconds.Observe(elapsed.Seconds())
	b.logger.Debug("indexes rebuilt", "lists", len(lists), "elapsed", elapsed)
	return nil
}

// resolvePosition returns the internal id at the 0-based index of list.
// ok is false for a negative or out-of-range index.
func resolvePosition(ctx context.Context, q querier, list string, index int) (int64, bool, error) {
	if index < 0 {
		return 0, false, nil
	}
	var internalID int64
	err := q.QueryRowContext(ctx,
		"SELECT internal_id FROM "+positionTable(list)+" WHERE position = ?", index+1).Scan(&internalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolving index %d of list %q: %w", index, list, err)
	}
	return internalID, true, nil
}
