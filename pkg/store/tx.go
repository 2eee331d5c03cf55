package store

import "context"

// Transactor runs fn against stores bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Stores) error) error
}
