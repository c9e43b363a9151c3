package models

import "time"

// Request payloads shared by the HTTP handlers and the services. Services
// validate them again so non-HTTP callers get the same rules.

type VehicleInput struct {
	Type    string `json:"type" binding:"required,max=50"`
	Make    string `json:"make" binding:"required,max=50"`
	Model   string `json:"model" binding:"required,max=50"`
	Year    int    `json:"year" binding:"omitempty,gte=1900,lte=2100"`
	Number  string `json:"number" binding:"required,max=20"`
	License string `json:"license" binding:"omitempty,max=50"`
}

func (v VehicleInput) ToVehicle() Vehicle {
	return Vehicle{
		Type:    v.Type,
		Make:    v.Make,
		Model:   v.Model,
		Year:    v.Year,
		Number:  v.Number,
		License: v.License,
	}
}

type BookingRequest struct {
	IssueDescription  string        `json:"issue_description" binding:"required,max=2000"`
	Vehicle           VehicleInput  `json:"vehicle"`
	PreferredDatetime time.Time     `json:"preferred_datetime" binding:"required"`
	EstimatedCost     *float64      `json:"estimated_cost" binding:"omitempty,gte=0"`
	PhoneNumber       string        `json:"phone_number" binding:"omitempty,phone"`
	Location          string        `json:"location" binding:"required,max=255"`
	AdditionalNotes   string        `json:"additional_notes" binding:"max=2000"`
	PaymentMethod     PaymentOption `json:"payment_method" binding:"omitempty,oneof=cash online"`
}

type OTPIssueRequest struct {
	Action OTPAction `json:"action" binding:"required,oneof=start complete"`
}

// OTPSubmitRequest is left unvalidated at binding time so a malformed code
// reaches the OTP gate and is reported as INVALID_OTP_FORMAT.
type OTPSubmitRequest struct {
	OTP string `json:"otp"`
}

type RatingRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments" binding:"max=2000"`
}

type AddPaymentMethodRequest struct {
	MethodType     PaymentMethodType `json:"method_type" binding:"required,oneof=card upi"`
	CardNumber     string            `json:"card_number" binding:"required_if=MethodType card,omitempty,card_number"`
	CardholderName string            `json:"cardholder_name" binding:"required_if=MethodType card,max=100"`
	ExpiryDate     string            `json:"expiry_date" binding:"required_if=MethodType card,omitempty,card_expiry"`
	CVV            string            `json:"cvv" binding:"required_if=MethodType card,omitempty,cvv"`
	UPIID          string            `json:"upi_id" binding:"required_if=MethodType upi,omitempty,upi_id"`
}

type PayInvoiceRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required,len=24,hexadecimal"`
}

// LocationUpdate is the inbound WebSocket frame. Pointer fields distinguish
// a missing value from zero.
type LocationUpdate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	JobID     *string  `json:"job_id"`
}

// LocationBroadcast is the frame fanned out to topic subscribers.
type LocationBroadcast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}
