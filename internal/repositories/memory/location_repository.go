package memory

import (
	"context"
	"fmt"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type locationRepository struct {
	db *db
}

func (r *locationRepository) Create(ctx context.Context, location *models.MechanicLocation) error {
	if location.ID.IsZero() {
		location.ID = primitive.NewObjectID()
	}

	return r.db.write(ctx, func() (func(), error) {
		n := len(r.db.locations)
		r.db.locations = append(r.db.locations, cloneLocation(location))
		return func() { r.db.locations = r.db.locations[:n] }, nil
	})
}

func (r *locationRepository) GetLatestForJob(_ context.Context, jobID primitive.ObjectID) (*models.MechanicLocation, error) {
	var latest *models.MechanicLocation
	r.db.read(func() {
		for _, l := range r.db.locations {
			if l.JobID == jobID && (latest == nil || !l.Timestamp.Before(latest.Timestamp)) {
				latest = l
			}
		}
		if latest != nil {
			latest = cloneLocation(latest)
		}
	})
	if latest == nil {
		return nil, fmt.Errorf("mechanic location: %w", interfaces.ErrNotFound)
	}
	return latest, nil
}

func (r *locationRepository) CountForJob(_ context.Context, jobID primitive.ObjectID) (int64, error) {
	var count int64
	r.db.read(func() {
		for _, l := range r.db.locations {
			if l.JobID == jobID {
				count++
			}
		}
	})
	return count, nil
}
