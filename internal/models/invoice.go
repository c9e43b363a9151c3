package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

type Invoice struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID  `json:"user_id" bson:"user_id"`
	JobID           primitive.ObjectID  `json:"job_id" bson:"job_id"`
	InvoiceNumber   string              `json:"invoice_number" bson:"invoice_number"`
	Amount          float64             `json:"amount" bson:"amount"`
	Status          InvoiceStatus       `json:"status" bson:"status"`
	IssuedAt        time.Time           `json:"issued_at" bson:"issued_at"`
	DueDate         *time.Time          `json:"due_date" bson:"due_date"`
	PaidAt          *time.Time          `json:"paid_at" bson:"paid_at"`
	PaymentMethodID *primitive.ObjectID `json:"payment_method_id,omitempty" bson:"payment_method_id,omitempty"`
}

// IsOverdue reports whether an unpaid invoice is past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == InvoiceStatusPaid || i.DueDate == nil {
		return false
	}
	return now.After(*i.DueDate)
}
