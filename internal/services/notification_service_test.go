package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mechongo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func TestSMSOTPNotifierSendsCodeWithDeadline(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 10*time.Second
	}), "+15550100", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "482913") &&
			strings.Contains(body, "completion") &&
			strings.Contains(body, "Honda City")
	})).Return(nil).Once()

	notifier := NewSMSOTPNotifier(sender)
	err := notifier.NotifyOTP(context.Background(), "+15550100", "482913", models.OTPActionComplete, "Honda City")

	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestSMSOTPNotifierReturnsSenderError(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("carrier down"))

	err := NewSMSOTPNotifier(sender).NotifyOTP(context.Background(), "+15550100", "123456", models.OTPActionStart, "")

	assert.EqualError(t, err, "carrier down")
}

func TestOTPMessageDefaultsVehicle(t *testing.T) {
	message := otpMessage("123456", models.OTPActionStart, "")

	assert.Contains(t, message, "start of service on your vehicle is 123456")
}
