package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string
type PaymentOption string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusDeclined  RequestStatus = "declined"
	RequestStatusCompleted RequestStatus = "completed"

	PaymentOptionCash   PaymentOption = "cash"
	PaymentOptionOnline PaymentOption = "online"
)

type Vehicle struct {
	Type    string `json:"type" bson:"type"`
	Make    string `json:"make" bson:"make"`
	Model   string `json:"model" bson:"model"`
	Year    int    `json:"year,omitempty" bson:"year,omitempty"`
	Number  string `json:"number" bson:"number"`
	License string `json:"license" bson:"license"`
}

// ServiceRequest is the customer's booking. MechanicID is nil exactly while
// the request is pending or declined.
type ServiceRequest struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CustomerID        primitive.ObjectID  `json:"customer_id" bson:"customer_id"`
	MechanicID        *primitive.ObjectID `json:"mechanic_id" bson:"mechanic_id"`
	IssueDescription  string              `json:"issue_description" bson:"issue_description"`
	Vehicle           Vehicle             `json:"vehicle" bson:"vehicle"`
	PreferredDatetime time.Time           `json:"preferred_datetime" bson:"preferred_datetime"`
	EstimatedCost     float64             `json:"estimated_cost" bson:"estimated_cost"`
	Status            RequestStatus       `json:"status" bson:"status"`
	PhoneNumber       string              `json:"phone_number" bson:"phone_number"`
	Location          string              `json:"location" bson:"location"`
	AdditionalNotes   string              `json:"additional_notes" bson:"additional_notes"`
	PaymentMethod     PaymentOption       `json:"payment_method" bson:"payment_method"`
	OTP               *OTPCode            `json:"-" bson:"otp"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

func (r *ServiceRequest) IsAssignedTo(mechanicID primitive.ObjectID) bool {
	return r.MechanicID != nil && *r.MechanicID == mechanicID
}

// Summary renders e.g. "Toyota Camry 2020".
func (v Vehicle) Summary() string {
	s := v.Make
	if v.Model != "" {
		if s != "" {
			s += " "
		}
		s += v.Model
	}
	if v.Year > 0 {
		if s != "" {
			s += " "
		}
		s += strconv.Itoa(v.Year)
	}
	return s
}
