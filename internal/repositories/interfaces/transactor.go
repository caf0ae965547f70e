package interfaces

import "context"

// Transactor runs fn atomically. Repositories called with the ctx passed to
// fn take part in the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
