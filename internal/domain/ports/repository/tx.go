package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via the `tx` argument.
//
// Repository methods accept `tx Tx` so the duplicate-transaction-id check,
// the payment row write and any enrollment grant writes triggered by the
// same command can share one atomic scope. Repositories MUST gracefully
// accept a nil handle (non-transactional path).
//
// The concrete type of the handle is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
