package interfaces

import (
	"context"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethodRepository interface {
	Create(ctx context.Context, method *models.PaymentMethod) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentMethod, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error)
}
