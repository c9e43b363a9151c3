package mongodb

import (
	"context"

	"mechongo/internal/repositories/interfaces"
	"mechongo/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactor struct {
	db *database.MongoDB
}

func NewTransactor(db *database.MongoDB) interfaces.Transactor {
	return &transactor{db: db}
}

// WithinTransaction joins an already open session transaction instead of
// nesting one, which MongoDB does not support.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	return t.db.WithTransaction(ctx, fn)
}
