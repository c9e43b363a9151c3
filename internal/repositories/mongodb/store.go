package mongodb

import (
	"mechongo/internal/repositories/interfaces"
	"mechongo/pkg/database"
)

func NewStore(db *database.MongoDB) *interfaces.Store {
	return &interfaces.Store{
		Users:          NewUserRepository(db.Database),
		Requests:       NewServiceRequestRepository(db.Database),
		Jobs:           NewJobRepository(db.Database),
		Invoices:       NewInvoiceRepository(db.Database),
		PaymentMethods: NewPaymentMethodRepository(db.Database),
		Locations:      NewLocationRepository(db.Database),
		Tx:             NewTransactor(db),
	}
}
