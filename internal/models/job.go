package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusEnRoute    JobStatus = "en_route"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"

	MinRating = 1
	MaxRating = 5
)

var (
	// Jobs a mechanic may stream locations for.
	BroadcastableJobStatuses = []JobStatus{JobStatusEnRoute, JobStatusInProgress}
	// Jobs shown on tracking pages.
	TrackableJobStatuses = []JobStatus{JobStatusScheduled, JobStatusEnRoute, JobStatusInProgress}
	// Jobs counted as active bookings on the customer dashboard.
	ActiveBookingStatuses = []JobStatus{JobStatusPending, JobStatusScheduled, JobStatusEnRoute, JobStatusInProgress}
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

func (s JobStatus) In(statuses ...JobStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Job is created together with its ServiceRequest. A non-nil Rating implies
// Status == JobStatusCompleted.
type Job struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ServiceRequestID primitive.ObjectID  `json:"service_request_id" bson:"service_request_id"`
	CustomerID       primitive.ObjectID  `json:"customer_id" bson:"customer_id"`
	MechanicID       *primitive.ObjectID `json:"mechanic_id" bson:"mechanic_id"`
	StartTime        time.Time           `json:"start_time" bson:"start_time"`
	EndTime          time.Time           `json:"end_time" bson:"end_time"`
	Status           JobStatus           `json:"status" bson:"status"`
	Rating           *int                `json:"rating" bson:"rating"`
	Comments         string              `json:"comments" bson:"comments"`
	CompletedAt      *time.Time          `json:"completed_at" bson:"completed_at"`
	CreatedAt        time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" bson:"updated_at"`
}

func (j *Job) IsAssignedTo(mechanicID primitive.ObjectID) bool {
	return j.MechanicID != nil && *j.MechanicID == mechanicID
}

// JobDetails pairs a job with its request for read paths.
type JobDetails struct {
	Job     *Job            `json:"job"`
	Request *ServiceRequest `json:"request"`
	OTP     *OTPDisplay     `json:"otp,omitempty"`
}
