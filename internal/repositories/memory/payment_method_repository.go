package memory

import (
	"context"
	"fmt"
	"sort"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentMethodRepository struct {
	db *db
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID.IsZero() {
		method.ID = primitive.NewObjectID()
	}

	return r.db.write(ctx, func() (func(), error) {
		if _, exists := r.db.paymentMethods[method.ID]; exists {
			return nil, fmt.Errorf("payment method: %w", interfaces.ErrDuplicateKey)
		}
		id := method.ID
		r.db.paymentMethods[id] = clonePaymentMethod(method)
		return func() { delete(r.db.paymentMethods, id) }, nil
	})
}

func (r *paymentMethodRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.PaymentMethod, error) {
	var method *models.PaymentMethod
	r.db.read(func() {
		if stored, ok := r.db.paymentMethods[id]; ok {
			method = clonePaymentMethod(stored)
		}
	})
	if method == nil {
		return nil, fmt.Errorf("payment method: %w", interfaces.ErrNotFound)
	}
	return method, nil
}

func (r *paymentMethodRepository) ListByUser(_ context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error) {
	var methods []*models.PaymentMethod
	r.db.read(func() {
		for _, stored := range r.db.paymentMethods {
			if stored.UserID == userID {
				methods = append(methods, clonePaymentMethod(stored))
			}
		}
	})

	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].CreatedAt.After(methods[j].CreatedAt)
	})
	return methods, nil
}
