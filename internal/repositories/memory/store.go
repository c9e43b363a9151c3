// Package memory is an in-process implementation of the repository
// interfaces. It backs the service tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type db struct {
	mu sync.RWMutex
	// txMu is held for the whole of a transaction and for every write made
	// outside one, so a rollback never replays over another caller's write.
	txMu sync.Mutex

	users          map[primitive.ObjectID]*models.User
	requests       map[primitive.ObjectID]*models.ServiceRequest
	jobs           map[primitive.ObjectID]*models.Job
	invoices       map[primitive.ObjectID]*models.Invoice
	paymentMethods map[primitive.ObjectID]*models.PaymentMethod
	locations      []*models.MechanicLocation
}

func NewStore() *interfaces.Store {
	d := &db{
		users:          make(map[primitive.ObjectID]*models.User),
		requests:       make(map[primitive.ObjectID]*models.ServiceRequest),
		jobs:           make(map[primitive.ObjectID]*models.Job),
		invoices:       make(map[primitive.ObjectID]*models.Invoice),
		paymentMethods: make(map[primitive.ObjectID]*models.PaymentMethod),
	}

	return &interfaces.Store{
		Users:          &userRepository{db: d},
		Requests:       &serviceRequestRepository{db: d},
		Jobs:           &jobRepository{db: d},
		Invoices:       &invoiceRepository{db: d},
		PaymentMethods: &paymentMethodRepository{db: d},
		Locations:      &locationRepository{db: d},
		Tx:             &transactor{db: d},
	}
}

type txKey struct{}

type txn struct {
	db   *db
	undo []func()
}

type transactor struct {
	db *db
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.db.txFrom(ctx) != nil {
		return fn(ctx)
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	tx := &txn{db: t.db}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		t.db.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		t.db.mu.Unlock()
		return err
	}

	return nil
}

func (d *db) txFrom(ctx context.Context) *txn {
	tx, ok := ctx.Value(txKey{}).(*txn)
	if !ok || tx.db != d {
		return nil
	}
	return tx
}

// write runs fn under the write lock. Inside a transaction the undo func fn
// returns is recorded; outside one the write waits for any open transaction
// to finish. A write inside fn of WithinTransaction must use the ctx it was
// given, or it blocks on its own transaction.
func (d *db) write(ctx context.Context, fn func() (undo func(), err error)) error {
	tx := d.txFrom(ctx)
	if tx == nil {
		d.txMu.Lock()
		defer d.txMu.Unlock()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	undo, err := fn()
	if err != nil {
		return err
	}
	if tx != nil && undo != nil {
		tx.undo = append(tx.undo, undo)
	}
	return nil
}

func (d *db) read(fn func()) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn()
}

func containsStatus[S comparable](statuses []S, status S) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
