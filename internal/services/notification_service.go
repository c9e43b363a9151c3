package services

import (
	"context"
	"fmt"
	"time"

	"mechongo/internal/models"
	"mechongo/pkg/sms"
)

// OTPNotifier delivers a freshly issued code to the customer out of band.
type OTPNotifier interface {
	NotifyOTP(ctx context.Context, phone, code string, action models.OTPAction, vehicle string) error
}

type smsOTPNotifier struct {
	sender  sms.Sender
	timeout time.Duration
}

func NewSMSOTPNotifier(sender sms.Sender) OTPNotifier {
	return &smsOTPNotifier{
		sender:  sender,
		timeout: 10 * time.Second,
	}
}

func (n *smsOTPNotifier) NotifyOTP(ctx context.Context, phone, code string, action models.OTPAction, vehicle string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.sender.Send(ctx, phone, otpMessage(code, action, vehicle))
}

func otpMessage(code string, action models.OTPAction, vehicle string) string {
	step := "start"
	if action == models.OTPActionComplete {
		step = "completion"
	}
	if vehicle == "" {
		vehicle = "your vehicle"
	}
	return fmt.Sprintf("Your MechOnGo code to confirm the %s of service on %s is %s. Share it with your mechanic only. It expires in 5 minutes.", step, vehicle, code)
}
