package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"filehaven/internal/domain/repositories"
)

type txManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a transaction manager over the pool
func NewTransactionManager(pool *pgxpool.Pool) repositories.TransactionManager {
	return &txManager{pool: pool}
}

// ExecTx runs fn inside a transaction. The transaction rides on the context,
// so any repository call fn makes joins it automatically; fn returning an
// error rolls everything back.
func (tm *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Rollback after a successful commit is a no-op returning ErrTxClosed
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Warn("transaction rollback failed", "error", err)
		}
	}()

	if err := fn(repositories.SetTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
