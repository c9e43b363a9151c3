package memory

import (
	"time"

	"mechongo/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored records are never handed out; every read and write copies.

func cloneID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Mechanic != nil {
		profile := *u.Mechanic
		c.Mechanic = &profile
	}
	return &c
}

func cloneRequest(r *models.ServiceRequest) *models.ServiceRequest {
	c := *r
	c.MechanicID = cloneID(r.MechanicID)
	if r.OTP != nil {
		otp := *r.OTP
		c.OTP = &otp
	}
	return &c
}

func cloneJob(j *models.Job) *models.Job {
	c := *j
	c.MechanicID = cloneID(j.MechanicID)
	c.CompletedAt = cloneTime(j.CompletedAt)
	if j.Rating != nil {
		rating := *j.Rating
		c.Rating = &rating
	}
	return &c
}

func cloneInvoice(i *models.Invoice) *models.Invoice {
	c := *i
	c.DueDate = cloneTime(i.DueDate)
	c.PaidAt = cloneTime(i.PaidAt)
	c.PaymentMethodID = cloneID(i.PaymentMethodID)
	return &c
}

func clonePaymentMethod(p *models.PaymentMethod) *models.PaymentMethod {
	c := *p
	return &c
}

func cloneLocation(l *models.MechanicLocation) *models.MechanicLocation {
	c := *l
	return &c
}
