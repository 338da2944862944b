package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls. The
// concrete type is infra-defined (pgx.Tx for Postgres). Repositories must
// accept NoTX (nil) and fall back to their pool.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction, passing the
// underlying handle via tx. Keeps use-case interfaces free of driver types.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
