package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OTPService interface {
	// Issue stores a new code for the request, replacing any prior one.
	Issue(ctx context.Context, mechanicID, requestID primitive.ObjectID, action models.OTPAction) error
	// Verify checks submitted against the stored code and consumes it. Run
	// it inside the transaction that applies the gated transition.
	Verify(ctx context.Context, requestID primitive.ObjectID, submitted string, action models.OTPAction) error
	Display(ctx context.Context, customerID, requestID primitive.ObjectID) (*models.OTPDisplay, error)
	// DisplayFor returns the customer view of request's code, or nil when
	// no live code exists.
	DisplayFor(request *models.ServiceRequest) *models.OTPDisplay
}

type otpService struct {
	requests interfaces.ServiceRequestRepository
	jobs     interfaces.JobRepository
	notifier OTPNotifier
	ttl      time.Duration
	clock    Clock
	logger   *logger.Logger
}

// NewOTPService builds the OTP gate. notifier may be nil.
func NewOTPService(store *interfaces.Store, notifier OTPNotifier, ttl time.Duration, clock Clock, log *logger.Logger) OTPService {
	return &otpService{
		requests: store.Requests,
		jobs:     store.Jobs,
		notifier: notifier,
		ttl:      ttl,
		clock:    clockOrDefault(clock),
		logger:   log,
	}
}

func (s *otpService) Issue(ctx context.Context, mechanicID, requestID primitive.ObjectID, action models.OTPAction) error {
	if !action.Valid() {
		return NewValidationError("action must be start or complete", map[string]string{"action": "oneof"})
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return notFoundOr(err, "service request")
	}
	if !request.IsAssignedTo(mechanicID) {
		return NewNotFoundError("service request")
	}

	job, err := s.jobs.GetByServiceRequest(ctx, requestID)
	if err != nil {
		return notFoundOr(err, "job")
	}
	if !jobAdmits(job.Status, action) {
		return invalidTransition(fmt.Sprintf("cannot issue a %s code while the job is %s", action, job.Status))
	}

	code, err := utils.GenerateRandomNumericString(utils.OTPLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	otp := &models.OTPCode{Code: code, Action: action, IssuedAt: s.clock()}
	if err := s.requests.SetOTP(ctx, requestID, otp); err != nil {
		return notFoundOr(err, "service request")
	}

	s.logger.WithContext(ctx).LogOTPEvent(requestID, "issued", string(action), true)
	s.notify(ctx, request, otp)

	return nil
}

func (s *otpService) notify(ctx context.Context, request *models.ServiceRequest, otp *models.OTPCode) {
	if s.notifier == nil || request.PhoneNumber == "" {
		return
	}

	err := s.notifier.NotifyOTP(ctx, request.PhoneNumber, otp.Code, otp.Action, request.Vehicle.Summary())
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"service_request_id": request.ID.Hex(),
			"phone":              utils.MaskPhone(request.PhoneNumber),
		}).Warn("Failed to send OTP SMS to customer")
	}
}

func (s *otpService) Verify(ctx context.Context, requestID primitive.ObjectID, submitted string, action models.OTPAction) error {
	err := s.verify(ctx, requestID, submitted, action)
	s.logger.WithContext(ctx).LogOTPEvent(requestID, "verified", string(action), err == nil)
	return err
}

func (s *otpService) verify(ctx context.Context, requestID primitive.ObjectID, submitted string, action models.OTPAction) error {
	if !utils.IsValidOTP(submitted) {
		return ErrInvalidOTPFormat
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return notFoundOr(err, "service request")
	}

	stored := request.OTP
	if stored == nil {
		return ErrNoOTPIssued
	}
	if stored.Expired(s.clock(), s.ttl) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(submitted)) != 1 {
		return ErrCodeMismatch
	}
	if stored.Action != action {
		return ErrActionMismatch
	}

	cleared, err := s.requests.ClearOTP(ctx, requestID, stored)
	if err != nil {
		return err
	}
	if !cleared {
		// Consumed or replaced since we read it.
		return ErrNoOTPIssued
	}

	return nil
}

func (s *otpService) Display(ctx context.Context, customerID, requestID primitive.ObjectID) (*models.OTPDisplay, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, "service request")
	}
	if request.CustomerID != customerID {
		return nil, NewNotFoundError("service request")
	}

	display := s.DisplayFor(request)
	if display == nil {
		return nil, NewNotFoundError("OTP")
	}
	return display, nil
}

func (s *otpService) DisplayFor(request *models.ServiceRequest) *models.OTPDisplay {
	if request == nil || request.OTP == nil || request.OTP.Expired(s.clock(), s.ttl) {
		return nil
	}

	return &models.OTPDisplay{
		RequestID: request.ID,
		Code:      request.OTP.Code,
		Action:    request.OTP.Action,
		ExpiresAt: request.OTP.ExpiresAt(s.ttl),
	}
}

// jobAdmits reports whether a job in status can take the transition action
// gates.
func jobAdmits(status models.JobStatus, action models.OTPAction) bool {
	switch action {
	case models.OTPActionStart:
		return status.In(models.JobStatusScheduled, models.JobStatusEnRoute)
	case models.OTPActionComplete:
		return status == models.JobStatusInProgress
	}
	return false
}

// notFoundOr converts a repository ErrNotFound into a NotFoundError and
// wraps anything else.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return NewNotFoundError(resource)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
