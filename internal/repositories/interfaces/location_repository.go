package interfaces

import (
	"context"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationRepository stores mechanic position samples. Samples are never
// updated or deleted.
type LocationRepository interface {
	Create(ctx context.Context, location *models.MechanicLocation) error
	GetLatestForJob(ctx context.Context, jobID primitive.ObjectID) (*models.MechanicLocation, error)
	CountForJob(ctx context.Context, jobID primitive.ObjectID) (int64, error)
}
