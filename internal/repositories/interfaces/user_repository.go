package interfaces

import (
	"context"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	ExistsWithRole(ctx context.Context, id primitive.ObjectID, role models.Role) (bool, error)
}
