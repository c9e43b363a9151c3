package sms

import "context"

// Sender delivers a text message to one E.164 phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}
