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

type jobRepository struct {
	collection *mongo.Collection
}

func NewJobRepository(db *mongo.Database) interfaces.JobRepository {
	return &jobRepository{
		collection: db.Collection(jobsCollection),
	}
}

// Basic operations
func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, job); err != nil {
		return translateInsertError(err, "job")
	}

	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *jobRepository) GetByServiceRequest(ctx context.Context, requestID primitive.ObjectID) (*models.Job, error) {
	return r.findOne(ctx, bson.M{"service_request_id": requestID})
}

// Conditional state operations
func (r *jobRepository) Schedule(ctx context.Context, requestID, mechanicID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"service_request_id": requestID,
		"status":             models.JobStatusPending,
		"mechanic_id":        nil,
	}
	update := bson.M{"$set": bson.M{
		"status":      models.JobStatusScheduled,
		"mechanic_id": mechanicID,
		"updated_at":  at,
	}}

	return r.updateOne(ctx, filter, update, "schedule job")
}

func (r *jobRepository) Transition(ctx context.Context, transition interfaces.JobTransition) (bool, error) {
	filter := bson.M{
		"_id":    transition.JobID,
		"status": bson.M{"$in": transition.From},
	}
	if transition.MechanicID != nil {
		filter["mechanic_id"] = *transition.MechanicID
	}

	set := bson.M{
		"status":     transition.To,
		"updated_at": transition.At,
	}
	if transition.To == models.JobStatusCompleted {
		set["completed_at"] = transition.At
	}

	return r.updateOne(ctx, filter, bson.M{"$set": set}, "transition job")
}

func (r *jobRepository) Rate(ctx context.Context, id, customerID primitive.ObjectID, rating int, comments string, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":         id,
		"customer_id": customerID,
		"status":      models.JobStatusCompleted,
		"rating":      nil,
	}
	update := bson.M{"$set": bson.M{
		"rating":     rating,
		"comments":   comments,
		"updated_at": at,
	}}

	return r.updateOne(ctx, filter, update, "rate job")
}

func (r *jobRepository) FindForMechanic(ctx context.Context, id, mechanicID primitive.ObjectID, statuses []models.JobStatus) (*models.Job, error) {
	return r.findOne(ctx, bson.M{
		"_id":         id,
		"mechanic_id": mechanicID,
		"status":      bson.M{"$in": statuses},
	})
}

// Queries
func (r *jobRepository) List(ctx context.Context, query interfaces.JobQuery) ([]*models.Job, error) {
	opts := options.Find()
	if sort := jobSort(query.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if query.Skip > 0 {
		opts.SetSkip(query.Skip)
	}
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
	}

	cursor, err := r.collection.Find(ctx, jobFilter(query), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []*models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}

	return jobs, nil
}

func (r *jobRepository) Count(ctx context.Context, query interfaces.JobQuery) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, jobFilter(query))
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func (r *jobRepository) AverageRating(ctx context.Context, query interfaces.JobQuery) (float64, error) {
	query.RatedOnly = true

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: jobFilter(query)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode rating average: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	return results[0].Average, nil
}

func jobFilter(query interfaces.JobQuery) bson.M {
	filter := bson.M{}

	if query.CustomerID != nil {
		filter["customer_id"] = *query.CustomerID
	}
	if query.MechanicID != nil {
		filter["mechanic_id"] = *query.MechanicID
	}
	if len(query.Statuses) > 0 {
		filter["status"] = bson.M{"$in": query.Statuses}
	}

	startTime := bson.M{}
	if query.StartingFrom != nil {
		startTime["$gte"] = *query.StartingFrom
	}
	if query.StartingTo != nil {
		startTime["$lt"] = *query.StartingTo
	}
	if len(startTime) > 0 {
		filter["start_time"] = startTime
	}

	if query.RatedOnly {
		filter["rating"] = bson.M{"$ne": nil}
	}

	return filter
}

func jobSort(sort interfaces.JobSort) bson.D {
	switch sort {
	case interfaces.JobSortStartTimeAsc:
		return bson.D{{Key: "start_time", Value: 1}}
	case interfaces.JobSortCompletedAtDesc:
		return bson.D{{Key: "completed_at", Value: -1}}
	case interfaces.JobSortCreatedAtDesc:
		return bson.D{{Key: "created_at", Value: -1}}
	}
	return nil
}

func (r *jobRepository) findOne(ctx context.Context, filter bson.M) (*models.Job, error) {
	var job models.Job
	if err := r.collection.FindOne(ctx, filter).Decode(&job); err != nil {
		return nil, translateFindError(err, "job")
	}
	return &job, nil
}

func (r *jobRepository) updateOne(ctx context.Context, filter, update bson.M, op string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return result.MatchedCount == 1, nil
}
