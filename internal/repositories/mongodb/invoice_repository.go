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

type invoiceRepository struct {
	collection *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) interfaces.InvoiceRepository {
	return &invoiceRepository{
		collection: db.Collection(invoicesCollection),
	}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID.IsZero() {
		invoice.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, invoice); err != nil {
		return translateInsertError(err, "invoice")
	}

	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invoice); err != nil {
		return nil, translateFindError(err, "invoice")
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByJob(ctx context.Context, jobID primitive.ObjectID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.collection.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&invoice); err != nil {
		return nil, translateFindError(err, "invoice")
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]*models.Invoice, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []*models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, 0, fmt.Errorf("failed to decode invoices: %w", err)
	}

	return invoices, total, nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, id, userID, paymentMethodID primitive.ObjectID, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":     id,
		"user_id": userID,
		"status":  bson.M{"$in": []models.InvoiceStatus{models.InvoiceStatusPending, models.InvoiceStatusOverdue}},
	}
	update := bson.M{"$set": bson.M{
		"status":            models.InvoiceStatusPaid,
		"paid_at":           at,
		"payment_method_id": paymentMethodID,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	filter := bson.M{
		"user_id":  userID,
		"status":   models.InvoiceStatusPending,
		"due_date": bson.M{"$lt": now},
	}

	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": models.InvoiceStatusOverdue}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark invoices overdue: %w", err)
	}
	return result.ModifiedCount, nil
}
