package interfaces

import (
	"context"
	"time"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ServiceRequestRepository interface {
	// Basic operations
	Create(ctx context.Context, request *models.ServiceRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.ServiceRequest, error)

	// Conditional status operations. Each reports whether a record matched
	// the expected current state.
	AssignMechanic(ctx context.Context, id, mechanicID primitive.ObjectID, at time.Time) (bool, error)
	Decline(ctx context.Context, id, customerID primitive.ObjectID, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id, mechanicID primitive.ObjectID, at time.Time) (bool, error)

	// OTP operations
	SetOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPCode) error
	ClearOTP(ctx context.Context, id primitive.ObjectID, expected *models.OTPCode) (bool, error)

	// Queries
	ListOpen(ctx context.Context, limit int) ([]*models.ServiceRequest, error)
	CountOpen(ctx context.Context) (int64, error)
}
