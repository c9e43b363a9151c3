package mongodb

import (
	"fmt"

	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	usersCollection             = "users"
	serviceRequestsCollection   = "service_requests"
	jobsCollection              = "jobs"
	invoicesCollection          = "invoices"
	paymentMethodsCollection    = "payment_methods"
	mechanicLocationsCollection = "mechanic_locations"
)

// translateFindError maps driver errors onto the repository sentinels.
func translateFindError(err error, what string) error {
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("%s: %w", what, interfaces.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func translateInsertError(err error, what string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", what, interfaces.ErrDuplicateKey)
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}
