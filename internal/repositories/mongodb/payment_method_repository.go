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

type paymentMethodRepository struct {
	collection *mongo.Collection
}

func NewPaymentMethodRepository(db *mongo.Database) interfaces.PaymentMethodRepository {
	return &paymentMethodRepository{
		collection: db.Collection(paymentMethodsCollection),
	}
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID.IsZero() {
		method.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, method); err != nil {
		return translateInsertError(err, "payment method")
	}
	return nil
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&method); err != nil {
		return nil, translateFindError(err, "payment method")
	}
	return &method, nil
}

func (r *paymentMethodRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer cursor.Close(ctx)

	var methods []*models.PaymentMethod
	if err := cursor.All(ctx, &methods); err != nil {
		return nil, fmt.Errorf("failed to decode payment methods: %w", err)
	}
	return methods, nil
}
