package repositories

import (
	"context"
)

// TxFn is a function executed within a transaction context
type TxFn func(ctx context.Context) error

// TransactionManager coordinates multi-statement operations.
// Only the path resolver's find-or-create chain runs transactionally;
// tree cascades deliberately do not (idempotent per-node retries instead).
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
