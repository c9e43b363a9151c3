package mongodb

import (
	"context"
	"fmt"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type locationRepository struct {
	collection *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) interfaces.LocationRepository {
	return &locationRepository{
		collection: db.Collection(mechanicLocationsCollection),
	}
}

func (r *locationRepository) Create(ctx context.Context, location *models.MechanicLocation) error {
	if location.ID.IsZero() {
		location.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, location); err != nil {
		return translateInsertError(err, "mechanic location")
	}
	return nil
}

func (r *locationRepository) GetLatestForJob(ctx context.Context, jobID primitive.ObjectID) (*models.MechanicLocation, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	var location models.MechanicLocation
	if err := r.collection.FindOne(ctx, bson.M{"job_id": jobID}, opts).Decode(&location); err != nil {
		return nil, translateFindError(err, "mechanic location")
	}
	return &location, nil
}

func (r *locationRepository) CountForJob(ctx context.Context, jobID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"job_id": jobID})
	if err != nil {
		return 0, fmt.Errorf("failed to count mechanic locations: %w", err)
	}
	return count, nil
}
