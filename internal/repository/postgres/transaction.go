package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docflow/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so repositories work the
// same inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func txFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx
}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db
}

// TxManager implements repository.TxManager on database/sql.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new transaction manager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

var _ repository.TxManager = (*TxManager)(nil)

// ExecTx executes fn within a read-committed transaction. Nested calls join the outer transaction.
func (m *TxManager) ExecTx(ctx context.Context, fn repository.TxFn) error {
	return m.run(ctx, nil, "exec tx", fn)
}

// ReadSnapshot executes fn within a read-only repeatable-read transaction.
func (m *TxManager) ReadSnapshot(ctx context.Context, fn repository.TxFn) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, "read snapshot", fn)
}

func (m *TxManager) run(ctx context.Context, opts *sql.TxOptions, op string, fn repository.TxFn) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return classify(op, fmt.Errorf("begin transaction: %w", err))
	}

	// Rollback after a successful commit returns sql.ErrTxDone and is harmless.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) && ctx.Err() != nil {
			return classify(op, ctx.Err())
		}
		return classify(op, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
