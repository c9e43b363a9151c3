package interfaces

import (
	"context"
	"time"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobTransition moves a job from one of From to To. When MechanicID is set
// the job must be assigned to that mechanic.
type JobTransition struct {
	JobID      primitive.ObjectID
	From       []models.JobStatus
	To         models.JobStatus
	MechanicID *primitive.ObjectID
	At         time.Time
}

type JobSort string

const (
	JobSortStartTimeAsc    JobSort = "start_time"
	JobSortCompletedAtDesc JobSort = "-completed_at"
	JobSortCreatedAtDesc   JobSort = "-created_at"
)

// JobQuery filters job listings. Zero fields are ignored.
type JobQuery struct {
	CustomerID   *primitive.ObjectID
	MechanicID   *primitive.ObjectID
	Statuses     []models.JobStatus
	StartingFrom *time.Time
	StartingTo   *time.Time
	RatedOnly    bool
	Sort         JobSort
	Skip         int64
	Limit        int64
}

type JobRepository interface {
	// Basic operations
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	GetByServiceRequest(ctx context.Context, requestID primitive.ObjectID) (*models.Job, error)

	// Conditional state operations
	Schedule(ctx context.Context, requestID, mechanicID primitive.ObjectID, at time.Time) (bool, error)
	Transition(ctx context.Context, transition JobTransition) (bool, error)
	Rate(ctx context.Context, id, customerID primitive.ObjectID, rating int, comments string, at time.Time) (bool, error)

	// FindForMechanic returns the job only when it is assigned to mechanicID
	// and its status is one of statuses.
	FindForMechanic(ctx context.Context, id, mechanicID primitive.ObjectID, statuses []models.JobStatus) (*models.Job, error)

	// Queries
	List(ctx context.Context, query JobQuery) ([]*models.Job, error)
	Count(ctx context.Context, query JobQuery) (int64, error)
	AverageRating(ctx context.Context, query JobQuery) (float64, error)
}
