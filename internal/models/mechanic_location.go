package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MechanicLocation is an append-only position sample.
type MechanicLocation struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MechanicID primitive.ObjectID `json:"mechanic_id" bson:"mechanic_id"`
	JobID      primitive.ObjectID `json:"job_id" bson:"job_id"`
	Latitude   float64            `json:"latitude" bson:"latitude"`
	Longitude  float64            `json:"longitude" bson:"longitude"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}
