package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// querier is satisfied by *sql.DB and *sql.Tx so read helpers run either
// inside a mutating transaction or directly against the pool.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction and commits when fn returns nil.
// On failure the transaction is rolled back and the column cache is purged,
// because columns added by the rolled-back DDL no longer exist.
func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		b.columns.purge()
		b.metrics.rollbacks.Inc()
		return err
	}

	if err := tx.Commit(); err != nil {
		b.columns.purge()
		b.metrics.rollbacks.Inc()
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
