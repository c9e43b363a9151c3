package interfaces

import (
	"context"
	"time"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error)
	GetByJob(ctx context.Context, jobID primitive.ObjectID) (*models.Invoice, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]*models.Invoice, int64, error)

	// MarkPaid settles an unpaid invoice owned by userID.
	MarkPaid(ctx context.Context, id, userID, paymentMethodID primitive.ObjectID, at time.Time) (bool, error)
	// MarkOverdue flags the user's pending invoices whose due date passed.
	MarkOverdue(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error)
}
