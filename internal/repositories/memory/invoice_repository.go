package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type invoiceRepository struct {
	db *db
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID.IsZero() {
		invoice.ID = primitive.NewObjectID()
	}

	return r.db.write(ctx, func() (func(), error) {
		for _, existing := range r.db.invoices {
			if existing.ID == invoice.ID || existing.InvoiceNumber == invoice.InvoiceNumber {
				return nil, fmt.Errorf("invoice: %w", interfaces.ErrDuplicateKey)
			}
		}
		id := invoice.ID
		r.db.invoices[id] = cloneInvoice(invoice)
		return func() { delete(r.db.invoices, id) }, nil
	})
}

func (r *invoiceRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	return r.findOne(func(i *models.Invoice) bool { return i.ID == id })
}

func (r *invoiceRepository) GetByJob(_ context.Context, jobID primitive.ObjectID) (*models.Invoice, error) {
	return r.findOne(func(i *models.Invoice) bool { return i.JobID == jobID })
}

func (r *invoiceRepository) ListByUser(_ context.Context, userID primitive.ObjectID, skip, limit int64) ([]*models.Invoice, int64, error) {
	var invoices []*models.Invoice
	r.db.read(func() {
		for _, stored := range r.db.invoices {
			if stored.UserID == userID {
				invoices = append(invoices, cloneInvoice(stored))
			}
		}
	})

	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].IssuedAt.After(invoices[j].IssuedAt)
	})

	total := int64(len(invoices))
	if skip > 0 {
		if skip >= total {
			return nil, total, nil
		}
		invoices = invoices[skip:]
	}
	if limit > 0 && int64(len(invoices)) > limit {
		invoices = invoices[:limit]
	}
	return invoices, total, nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, id, userID, paymentMethodID primitive.ObjectID, at time.Time) (bool, error) {
	var matched bool
	err := r.db.write(ctx, func() (func(), error) {
		stored, ok := r.db.invoices[id]
		if !ok || stored.UserID != userID || stored.Status == models.InvoiceStatusPaid {
			return nil, nil
		}
		matched = true
		previous := cloneInvoice(stored)
		updated := cloneInvoice(stored)
		updated.Status = models.InvoiceStatusPaid
		updated.PaidAt = cloneTime(&at)
		updated.PaymentMethodID = cloneID(&paymentMethodID)
		r.db.invoices[id] = updated
		return func() { r.db.invoices[id] = previous }, nil
	})
	return matched, err
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	var modified int64
	err := r.db.write(ctx, func() (func(), error) {
		previous := make(map[primitive.ObjectID]*models.Invoice)
		for id, stored := range r.db.invoices {
			if stored.UserID != userID || stored.Status != models.InvoiceStatusPending || !stored.IsOverdue(now) {
				continue
			}
			previous[id] = cloneInvoice(stored)
			updated := cloneInvoice(stored)
			updated.Status = models.InvoiceStatusOverdue
			r.db.invoices[id] = updated
			modified++
		}
		return func() {
			for id, inv := range previous {
				r.db.invoices[id] = inv
			}
		}, nil
	})
	return modified, err
}

func (r *invoiceRepository) findOne(match func(*models.Invoice) bool) (*models.Invoice, error) {
	var invoice *models.Invoice
	r.db.read(func() {
		for _, stored := range r.db.invoices {
			if match(stored) {
				invoice = cloneInvoice(stored)
				return
			}
		}
	})
	if invoice == nil {
		return nil, fmt.Errorf("invoice: %w", interfaces.ErrNotFound)
	}
	return invoice, nil
}
