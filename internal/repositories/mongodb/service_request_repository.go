package mongodb

import (
	"context"
	"fmt"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type serviceRequestRepository struct {
	collection *mongo.Collection
}

func NewServiceRequestRepository(db *mongo.Database) interfaces.ServiceRequestRepository {
	return &serviceRequestRepository{
		collection: db.Collection(serviceRequestsCollection),
	}
}

// Basic operations
func (r *serviceRequestRepository) Create(ctx context.Context, request *models.ServiceRequest) error {
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return translateInsertError(err, "service request")
	}

	return nil
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, translateFindError(err, "service request")
	}

	return &request, nil
}

func (r *serviceRequestRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.ServiceRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// Conditional status operations
func (r *serviceRequestRepository) AssignMechanic(ctx context.Context, id, mechanicID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":         id,
		"status":      models.RequestStatusPending,
		"mechanic_id": nil,
	}
	update := bson.M{"$set": bson.M{
		"status":      models.RequestStatusAccepted,
		"mechanic_id": mechanicID,
		"updated_at":  at,
	}}

	return r.updateOne(ctx, filter, update, "assign mechanic")
}

func (r *serviceRequestRepository) Decline(ctx context.Context, id, customerID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":         id,
		"customer_id": customerID,
		"status":      models.RequestStatusPending,
		"mechanic_id": nil,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.RequestStatusDeclined,
		"otp":        nil,
		"updated_at": at,
	}}

	return r.updateOne(ctx, filter, update, "decline service request")
}

func (r *serviceRequestRepository) MarkCompleted(ctx context.Context, id, mechanicID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":         id,
		"mechanic_id": mechanicID,
		"status":      models.RequestStatusAccepted,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.RequestStatusCompleted,
		"updated_at": at,
	}}

	return r.updateOne(ctx, filter, update, "complete service request")
}

// OTP operations
func (r *serviceRequestRepository) SetOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPCode) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"otp": otp, "updated_at": otp.IssuedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("service request: %w", interfaces.ErrNotFound)
	}

	return nil
}

func (r *serviceRequestRepository) ClearOTP(ctx context.Context, id primitive.ObjectID, expected *models.OTPCode) (bool, error) {
	filter := bson.M{
		"_id":           id,
		"otp.code":      expected.Code,
		"otp.action":    expected.Action,
		"otp.issued_at": expected.IssuedAt,
	}

	return r.updateOne(ctx, filter, bson.M{"$set": bson.M{"otp": nil}}, "clear otp")
}

// Queries
func (r *serviceRequestRepository) ListOpen(ctx context.Context, limit int) ([]*models.ServiceRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	return r.find(ctx, openFilter(), opts)
}

func (r *serviceRequestRepository) CountOpen(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, openFilter())
	if err != nil {
		return 0, fmt.Errorf("failed to count open requests: %w", err)
	}
	return count, nil
}

func openFilter() bson.M {
	return bson.M{"status": models.RequestStatusPending, "mechanic_id": nil}
}

func (r *serviceRequestRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.ServiceRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find service requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.ServiceRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode service requests: %w", err)
	}

	return requests, nil
}

func (r *serviceRequestRepository) updateOne(ctx context.Context, filter, update bson.M, op string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return result.MatchedCount == 1, nil
}
