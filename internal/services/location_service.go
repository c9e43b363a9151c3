package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcaster fans a payload out to every subscriber of topic.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic string, payload interface{}) error
}

type LocationService interface {
	// Publish validates, persists and fans out one location sample sent by
	// callerID on mechanicID's topic.
	Publish(ctx context.Context, callerID, mechanicID primitive.ObjectID, update *models.LocationUpdate) (*models.LocationBroadcast, error)
	LatestForJob(ctx context.Context, callerID, jobID primitive.ObjectID) (*models.MechanicLocation, error)
	MechanicExists(ctx context.Context, mechanicID primitive.ObjectID) (bool, error)
}

type locationService struct {
	users       interfaces.UserRepository
	jobs        interfaces.JobRepository
	locations   interfaces.LocationRepository
	broadcaster Broadcaster
	clock       Clock
	logger      *logger.Logger
}

func NewLocationService(store *interfaces.Store, broadcaster Broadcaster, clock Clock, log *logger.Logger) LocationService {
	return &locationService{
		users:       store.Users,
		jobs:        store.Jobs,
		locations:   store.Locations,
		broadcaster: broadcaster,
		clock:       clockOrDefault(clock),
		logger:      log,
	}
}

// TopicForMechanic names the broadcast topic of a mechanic.
func TopicForMechanic(mechanicID primitive.ObjectID) string {
	return mechanicID.Hex()
}

func (s *locationService) Publish(ctx context.Context, callerID, mechanicID primitive.ObjectID, update *models.LocationUpdate) (*models.LocationBroadcast, error) {
	if update == nil || update.Latitude == nil || update.Longitude == nil || update.JobID == nil {
		return nil, ErrMissingFields
	}
	if callerID.IsZero() || callerID != mechanicID {
		return nil, ErrNotAuthorizedForJob
	}
	jobID, err := primitive.ObjectIDFromHex(*update.JobID)
	if err != nil {
		return nil, ErrNotAuthorizedForJob
	}

	lat, lon := *update.Latitude, *update.Longitude
	if details := coordinateErrors(lat, lon); len(details) > 0 {
		return nil, NewValidationError("Coordinates out of range", details)
	}

	job, err := s.jobs.FindForMechanic(ctx, jobID, mechanicID, models.BroadcastableJobStatuses)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrNotAuthorizedForJob
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	now := s.clock()
	location := &models.MechanicLocation{
		MechanicID: mechanicID,
		JobID:      job.ID,
		Latitude:   lat,
		Longitude:  lon,
		Timestamp:  now,
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to store location: %w", err)
	}

	payload := &models.LocationBroadcast{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: utils.FormatTimeISO(now),
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(ctx, TopicForMechanic(mechanicID), payload); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithJobID(job.ID).Warn("Failed to broadcast mechanic location")
		}
	}

	return payload, nil
}

func coordinateErrors(lat, lon float64) map[string]string {
	details := make(map[string]string)
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		details["latitude"] = "must be between -90 and 90"
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		details["longitude"] = "must be between -180 and 180"
	}
	return details
}

func (s *locationService) LatestForJob(ctx context.Context, callerID, jobID primitive.ObjectID) (*models.MechanicLocation, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job")
	}
	if job.CustomerID != callerID && !job.IsAssignedTo(callerID) {
		return nil, NewNotFoundError("job")
	}

	location, err := s.locations.GetLatestForJob(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "location")
	}
	return location, nil
}

func (s *locationService) MechanicExists(ctx context.Context, mechanicID primitive.ObjectID) (bool, error) {
	return s.users.ExistsWithRole(ctx, mechanicID, models.RoleMechanic)
}
