package interfaces

import "context"

// Transactor runs fn atomically. Repository calls made with the context
// passed to fn join the transaction; any error returned by fn rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
