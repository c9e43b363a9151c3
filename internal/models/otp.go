package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OTPAction string

const (
	OTPActionStart    OTPAction = "start"
	OTPActionComplete OTPAction = "complete"
)

func (a OTPAction) Valid() bool {
	return a == OTPActionStart || a == OTPActionComplete
}

// OTPCode is the single outstanding confirmation code of a service request.
// Code and Action are kept as separate fields so a start code can never be
// parsed as a completion code.
type OTPCode struct {
	Code     string    `json:"code" bson:"code"`
	Action   OTPAction `json:"action" bson:"action"`
	IssuedAt time.Time `json:"issued_at" bson:"issued_at"`
}

func (o *OTPCode) ExpiresAt(ttl time.Duration) time.Time {
	return o.IssuedAt.Add(ttl)
}

// Expired reports whether more than ttl has elapsed since issuance.
func (o *OTPCode) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.IssuedAt) > ttl
}

// OTPDisplay is what the customer sees on their dashboard.
type OTPDisplay struct {
	RequestID primitive.ObjectID `json:"request_id"`
	Code      string             `json:"otp"`
	Action    OTPAction          `json:"action"`
	ExpiresAt time.Time          `json:"expires_at"`
}
