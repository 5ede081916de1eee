package repositories

import "context"

// TxFn runs inside a transaction. Returning an error rolls the transaction
// back.
type TxFn func(ctx context.Context) error

// TransactionManager wraps a unit of work in a database transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
