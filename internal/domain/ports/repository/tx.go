package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres); repositories must accept nil for the
// non-transactional path.
type Tx interface{}

// NoTX marks a deliberately non-transactional call site.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the transaction handle to the callback. Repository methods that
// receive a live tx may take row locks (SELECT ... FOR UPDATE) on it; this
// is what serializes concurrent reconciliations of the same order id.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
