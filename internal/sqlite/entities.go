package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entities/pkg/types"
)

// Save merges entities into list in input order within one transaction.
// The list and any property columns named by the first entity are created as
// needed; properties of later entities that have no column are dropped.
// Ordinal indexes of all lists are rebuilt before the transaction commits.
func (b *Backend) Save(ctx context.Context, list string, entities []types.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	if err := types.ValidateListName(list); err != nil {
		return err
	}
	for i, e := range entities {
		if e.ID == "" {
			return fmt.Errorf("%w: entity %d of batch for list %q has no id", types.ErrInvalidID, i, list)
		}
		if e.State != types.StateOffline && e.State != types.StateOnline {
			return fmt.Errorf("%w: entity %q has state %d", types.ErrInvalidState, e.ID, int(e.State))
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	var inserted, merged, pinned int
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := b.ensureList(ctx, tx, list); err != nil {
			return err
		}
		props, err := b.ensurePropertyColumns(ctx, tx, list, entities[0])
		if err != nil {
			return err
		}

		for _, incoming := range entities {
			existing, found, err := lookupHead(ctx, tx, list, incoming.ID)
			if err != nil {
				return err
			}
			if !found {
				if err := insertRow(ctx, tx, list, props, incoming); err != nil {
					return err
				}
				inserted++
				continue
			}

			row := mergeEntity(existing, incoming)
			if row.State != incoming.State {
				pinned++
			}
			if err := updateRow(ctx, tx, list, props, existing.internalID, row); err != nil {
				return err
			}
			merged++
		}

		return b.rebuildIndexes(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("saving to list %q: %w", list, err)
	}

	b.metrics.saved.WithLabelValues(outcomeInserted).Add(float64(inserted))
	b.metrics.saved.WithLabelValues(outcomeMerged).Add(float64(merged))
	b.metrics.pinnedOnline.Add(float64(pinned))
	b.logger.Debug("entities saved", "list", list, "inserted", inserted, "merged", merged, "pinned_online", pinned)
	return nil
}

// GetEntities returns every entity of list ordered by index. An unknown list
// yields an empty slice.
func (b *Backend) GetEntities(ctx context.Context, list string) ([]types.SavedEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.queryEntities(ctx, list, "", nil)
}

// GetByID returns the entity with the given id.
func (b *Backend) GetByID(ctx context.Context, list, id string) (types.SavedEntity, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.SavedEntity{}, false, types.ErrStoreDetached
	}
	return b.queryOne(ctx, list, "l."+colID+" = ?", id)
}

// GetAllByProperty returns the entities of list whose property equals value.
// A property the list has never seen matches everything when value is empty
// and nothing otherwise.
func (b *Backend) GetAllByProperty(ctx context.Context, list, property, value string) ([]types.SavedEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	known, err := b.knownList(ctx, list)
	if err != nil || !known {
		return []types.SavedEntity{}, err
	}

	props, err := b.propertyNames(ctx, b.db, list)
	if err != nil {
		return nil, err
	}
	name, ok := matchProperty(props, property)
	if !ok {
		if value == "" {
			return b.queryEntities(ctx, list, "", nil)
		}
		return []types.SavedEntity{}, nil
	}
	return b.queryEntities(ctx, list, "l."+propertyColumn(name)+" = ?", []any{value})
}

// GetByIndex returns the entity at the 0-based position index of list.
func (b *Backend) GetByIndex(ctx context.Context, list string, index int) (types.SavedEntity, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.SavedEntity{}, false, types.ErrStoreDetached
	}

	known, err := b.knownList(ctx, list)
	if err != nil || !known {
		return types.SavedEntity{}, false, err
	}
	internalID, ok, err := resolvePosition(ctx, b.db, list, index)
	if err != nil || !ok {
		return types.SavedEntity{}, false, err
	}
	return b.queryOne(ctx, list, "l."+colInternalID+" = ?", internalID)
}

// GetCount returns the number of entities in list, 0 when unknown.
func (b *Backend) GetCount(ctx context.Context, list string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}

	known, err := b.knownList(ctx, list)
	if err != nil || !known {
		return 0, err
	}
	var n int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(list)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting list %q: %w", list, err)
	}
	return n, nil
}

// Delete removes every row with the given id from every list and rebuilds
// the ordinal indexes.
func (b *Backend) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	var removed int64
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		lists, err := listNames(ctx, tx)
		if err != nil {
			return err
		}
		for _, list := range lists {
			res, err := tx.ExecContext(ctx,
				"DELETE FROM "+quoteIdent(list)+" WHERE "+colID+" = ?", id)
			if err != nil {
				return fmt.Errorf("deleting %q from list %q: %w", id, list, err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		return b.rebuildIndexes(ctx, tx)
	})
	if err != nil {
		return err
	}

	b.metrics.deleted.Add(float64(removed))
	b.logger.Debug("entity deleted", "id", id, "rows", removed)
	return nil
}

// Clear drops every list table, every position table and the registry
// entries. Afterwards the store behaves as if no list ever existed.
func (b *Backend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	var dropped int
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		lists, err := listNames(ctx, tx)
		if err != nil {
			return err
		}
		for _, list := range lists {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+positionTable(list)); err != nil {
				return fmt.Errorf("dropping index of list %q: %w", list, err)
			}
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(list)); err != nil {
				return fmt.Errorf("dropping list %q: %w", list, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+registryTable); err != nil {
			return fmt.Errorf("clearing registry: %w", err)
		}
		dropped = len(lists)
		return nil
	})
	if err != nil {
		return err
	}

	b.columns.purge()
	b.logger.Info("store cleared", "lists", dropped)
	return nil
}

// knownList reports whether list is registered. Invalid names are unknown.
func (b *Backend) knownList(ctx context.Context, list string) (bool, error) {
	if types.ValidateListName(list) != nil {
		return false, nil
	}
	return listExists(ctx, b.db, list)
}

// queryOne runs a single-row query over list; ok is false when the list is
// unknown or no row matches.
func (b *Backend) queryOne(ctx context.Context, list, where string, arg any) (types.SavedEntity, bool, error) {
	found, err := b.queryEntities(ctx, list, where, []any{arg})
	if err != nil || len(found) == 0 {
		return types.SavedEntity{}, false, err
	}
	return found[0], true, nil
}

// queryEntities selects the rows of list joined with their positions,
// optionally filtered by where, ordered by position.
func (b *Backend) queryEntities(ctx context.Context, list, where string, args []any) ([]types.SavedEntity, error) {
	known, err := b.knownList(ctx, list)
	if err != nil || !known {
		return []types.SavedEntity{}, err
	}
	props, err := b.propertyNames(ctx, b.db, list)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s AS l JOIN %s AS p ON p.internal_id = l.internal_id",
		selectColumns(props), quoteIdent(list), positionTable(list))
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY p.position"

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying list %q: %w", list, err)
	}
	defer rows.Close()

	result := []types.SavedEntity{}
	for rows.Next() {
		e, err := scanEntity(rows, props)
		if err != nil {
			return nil, fmt.Errorf("scanning list %q: %w", list, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// selectColumns lists the fixed columns, the position and then every
// property column, in that order. scanEntity relies on this order.
func selectColumns(props []string) string {
	cols := []string{
		"l." + colID, "l." + colLabel, "l." + colVersion, "l." + colTrunkVersion,
		"l." + colBranchID, "l." + colState, "p.position",
	}
	for _, p := range props {
		cols = append(cols, "l."+propertyColumn(p))
	}
	return strings.Join(cols, ", ")
}

func scanEntity(rows *sql.Rows, props []string) (types.SavedEntity, error) {
	var (
		e            types.SavedEntity
		label        sql.NullString
		trunkVersion sql.NullInt64
		branchID     sql.NullString
		state        int
		position     int
	)
	values := make([]sql.NullString, len(props))
	dest := []any{&e.ID, &label, &e.Version, &trunkVersion, &branchID, &state, &position}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return types.SavedEntity{}, err
	}

	if label.Valid {
		e.Label = types.StringPtr(label.String)
	}
	if trunkVersion.Valid {
		e.TrunkVersion = types.Int64Ptr(trunkVersion.Int64)
	}
	e.BranchID = branchID.String
	e.State = types.EntityState(state)
	e.Index = position - 1
	if len(props) > 0 {
		e.Properties = make([]types.Property, len(props))
		for i, p := range props {
			e.Properties[i] = types.Property{Name: p, Value: values[i].String}
		}
	}
	return e, nil
}

// lookupHead loads the merge-relevant columns of the row with the given id.
func lookupHead(ctx context.Context, tx *sql.Tx, list, id string) (storedHead, bool, error) {
	var (
		head  storedHead
		label sql.NullString
		state int
	)
	err := tx.QueryRowContext(ctx,
		"SELECT internal_id, label, state FROM "+quoteIdent(list)+" WHERE id = ?", id).
		Scan(&head.internalID, &label, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return storedHead{}, false, nil
	}
	if err != nil {
		return storedHead{}, false, fmt.Errorf("looking up %q in list %q: %w", id, list, err)
	}
	if label.Valid {
		head.label = types.StringPtr(label.String)
	}
	head.state = types.EntityState(state)
	return head, true, nil
}

// rowValues returns the column names and values written for e. Every known
// property column is written: properties e omits are reset to the empty
// string, and properties without a column are dropped.
func rowValues(props []string, e types.Entity) ([]string, []any) {
	cols := []string{colID, colLabel, colVersion, colTrunkVersion, colBranchID, colState}
	vals := []any{e.ID, nullableString(e.Label), e.Version, nullableInt64(e.TrunkVersion), nullIfEmpty(e.BranchID), int(e.State)}

	for _, p := range props {
		value := ""
		for _, ep := range e.Properties {
			if strings.EqualFold(ep.Name, p) {
				value = ep.Value
			}
		}
		cols = append(cols, propertyColumn(p))
		vals = append(vals, value)
	}
	return cols, vals
}

func insertRow(ctx context.Context, tx *sql.Tx, list string, props []string, e types.Entity) error {
	cols, vals := rowValues(props, e)
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(list), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, stmt, vals...); err != nil {
		return fmt.Errorf("inserting %q into list %q: %w", e.ID, list, err)
	}
	return nil
}

func updateRow(ctx context.Context, tx *sql.Tx, list string, props []string, internalID int64, e types.Entity) error {
	cols, vals := rowValues(props, e)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(list), strings.Join(sets, ", "), colInternalID)
	if _, err := tx.ExecContext(ctx, stmt, append(vals, internalID)...); err != nil {
		return fmt.Errorf("updating %q in list %q: %w", e.ID, list, err)
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
