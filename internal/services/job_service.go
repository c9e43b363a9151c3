package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mechongo/internal/config"
	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const invoiceNumberAttempts = 3

type JobService interface {
	// Customer operations
	Book(ctx context.Context, customerID primitive.ObjectID, request *models.BookingRequest) (*models.BookingResult, error)
	Cancel(ctx context.Context, customerID, requestID primitive.ObjectID) error
	Rate(ctx context.Context, customerID, jobID primitive.ObjectID, request *models.RatingRequest) (*models.Job, error)

	// Mechanic operations
	Accept(ctx context.Context, mechanicID, requestID primitive.ObjectID) (*models.JobDetails, error)
	BeginTravel(ctx context.Context, mechanicID, jobID primitive.ObjectID) (*models.Job, error)
	StopSharing(ctx context.Context, mechanicID, jobID primitive.ObjectID) (*models.Job, error)

	// OTP gated operations
	Start(ctx context.Context, mechanicID, requestID primitive.ObjectID, otp string) (*models.Job, error)
	Complete(ctx context.Context, mechanicID, requestID primitive.ObjectID, otp string) (*models.Job, error)
}

type jobService struct {
	store     *interfaces.Store
	otp       OTPService
	lifecycle *config.LifecycleConfig
	clock     Clock
	logger    *logger.Logger
}

func NewJobService(store *interfaces.Store, otp OTPService, lifecycle *config.LifecycleConfig, clock Clock, log *logger.Logger) JobService {
	return &jobService{
		store:     store,
		otp:       otp,
		lifecycle: lifecycle,
		clock:     clockOrDefault(clock),
		logger:    log,
	}
}

// Customer operations
func (s *jobService) Book(ctx context.Context, customerID primitive.ObjectID, request *models.BookingRequest) (*models.BookingResult, error) {
	if request == nil {
		return nil, NewValidationError("Invalid booking request", nil)
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, NewValidationError("Invalid booking request", utils.ValidationDetails(err))
	}

	now := s.clock()
	if request.PreferredDatetime.Before(now) {
		return nil, NewValidationError("Preferred date and time cannot be in the past",
			map[string]string{"preferred_datetime": "future"})
	}

	if err := s.requireRole(ctx, customerID, models.RoleCustomer, "Only customers can book services"); err != nil {
		return nil, err
	}

	var result *models.BookingResult
	var err error
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var txErr error
			result, txErr = s.createBooking(ctx, customerID, request, now)
			return txErr
		})
		if !errors.Is(err, interfaces.ErrDuplicateKey) {
			break
		}
		s.logger.WithContext(ctx).WithError(err).Warn("Invoice number collision, retrying booking")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to book service: %w", err)
	}

	s.logger.WithContext(ctx).LogJobEvent(result.Job.ID, "booked", map[string]interface{}{
		"service_request_id": result.Request.ID.Hex(),
		"customer_id":        customerID.Hex(),
		"invoice_number":     result.Invoice.InvoiceNumber,
	})

	return result, nil
}

func (s *jobService) createBooking(ctx context.Context, customerID primitive.ObjectID, input *models.BookingRequest, now time.Time) (*models.BookingResult, error) {
	payment := input.PaymentMethod
	if payment == "" {
		payment = models.PaymentOptionCash
	}
	var cost float64
	if input.EstimatedCost != nil {
		cost = *input.EstimatedCost
	}

	request := &models.ServiceRequest{
		ID:                primitive.NewObjectID(),
		CustomerID:        customerID,
		IssueDescription:  input.IssueDescription,
		Vehicle:           input.Vehicle.ToVehicle(),
		PreferredDatetime: input.PreferredDatetime,
		EstimatedCost:     cost,
		Status:            models.RequestStatusPending,
		PhoneNumber:       input.PhoneNumber,
		Location:          input.Location,
		AdditionalNotes:   input.AdditionalNotes,
		PaymentMethod:     payment,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Requests.Create(ctx, request); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:               primitive.NewObjectID(),
		ServiceRequestID: request.ID,
		CustomerID:       customerID,
		StartTime:        input.PreferredDatetime,
		EndTime:          input.PreferredDatetime.Add(s.lifecycle.JobWindow),
		Status:           models.JobStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	due := now.Add(s.lifecycle.InvoiceDueAfter)
	invoice := &models.Invoice{
		ID:            primitive.NewObjectID(),
		UserID:        customerID,
		JobID:         job.ID,
		InvoiceNumber: newInvoiceNumber(now),
		Amount:        cost,
		Status:        models.InvoiceStatusPending,
		IssuedAt:      now,
		DueDate:       &due,
	}
	if err := s.store.Invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}

	return &models.BookingResult{Request: request, Job: job, Invoice: invoice}, nil
}

// newInvoiceNumber returns e.g. INV-20261015-3F9A.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

func (s *jobService) Cancel(ctx context.Context, customerID, requestID primitive.ObjectID) error {
	now := s.clock()

	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		declined, err := s.store.Requests.Decline(ctx, requestID, customerID, now)
		if err != nil {
			return fmt.Errorf("failed to decline request: %w", err)
		}
		if !declined {
			request, err := s.store.Requests.GetByID(ctx, requestID)
			if err != nil {
				return notFoundOr(err, "service request")
			}
			if request.CustomerID != customerID {
				return NewNotFoundError("service request")
			}
			return invalidTransition("Request can no longer be cancelled")
		}

		job, err := s.store.Jobs.GetByServiceRequest(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "job")
		}
		cancelled, err := s.store.Jobs.Transition(ctx, interfaces.JobTransition{
			JobID: job.ID,
			From:  []models.JobStatus{models.JobStatusPending},
			To:    models.JobStatusCancelled,
			At:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to cancel job: %w", err)
		}
		if !cancelled {
			return invalidTransition("Job can no longer be cancelled")
		}

		s.logger.WithContext(ctx).LogJobEvent(job.ID, "cancelled", map[string]interface{}{
			"service_request_id": requestID.Hex(),
		})
		return nil
	})

	return err
}

func (s *jobService) Rate(ctx context.Context, customerID, jobID primitive.ObjectID, request *models.RatingRequest) (*models.Job, error) {
	if request == nil || request.Rating < models.MinRating || request.Rating > models.MaxRating {
		return nil, NewValidationError("Rating must be between 1 and 5", map[string]string{"rating": "range"})
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, NewValidationError("Invalid rating", utils.ValidationDetails(err))
	}

	rated, err := s.store.Jobs.Rate(ctx, jobID, customerID, request.Rating, request.Comments, s.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to rate job: %w", err)
	}

	job, err := s.store.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job")
	}
	if job.CustomerID != customerID {
		return nil, NewNotFoundError("job")
	}
	if !rated {
		if job.Rating != nil {
			return nil, ErrAlreadyRated
		}
		return nil, invalidTransition("Only completed jobs can be rated")
	}

	s.logger.WithContext(ctx).LogJobEvent(jobID, "rated", map[string]interface{}{
		"rating": request.Rating,
	})

	return job, nil
}

// Mechanic operations
func (s *jobService) Accept(ctx context.Context, mechanicID, requestID primitive.ObjectID) (*models.JobDetails, error) {
	if err := s.requireRole(ctx, mechanicID, models.RoleMechanic, "Only mechanics can accept requests"); err != nil {
		return nil, err
	}

	now := s.clock()
	var details *models.JobDetails

	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		assigned, err := s.store.Requests.AssignMechanic(ctx, requestID, mechanicID, now)
		if err != nil {
			return fmt.Errorf("failed to assign mechanic: %w", err)
		}

		request, err := s.store.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "service request")
		}
		if !assigned {
			if request.Status == models.RequestStatusDeclined {
				return invalidTransition("Request was cancelled by the customer")
			}
			return ErrAlreadyAssigned
		}

		scheduled, err := s.store.Jobs.Schedule(ctx, requestID, mechanicID, now)
		if err != nil {
			return fmt.Errorf("failed to schedule job: %w", err)
		}
		if !scheduled {
			return invalidTransition("Job is no longer pending")
		}

		job, err := s.store.Jobs.GetByServiceRequest(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "job")
		}
		details = &models.JobDetails{Job: job, Request: request}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogJobEvent(details.Job.ID, "accepted", map[string]interface{}{
		"service_request_id": requestID.Hex(),
		"mechanic_id":        mechanicID.Hex(),
	})

	return details, nil
}

func (s *jobService) BeginTravel(ctx context.Context, mechanicID, jobID primitive.ObjectID) (*models.Job, error) {
	return s.transition(ctx, mechanicID, jobID,
		[]models.JobStatus{models.JobStatusScheduled}, models.JobStatusEnRoute, "en_route")
}

func (s *jobService) StopSharing(ctx context.Context, mechanicID, jobID primitive.ObjectID) (*models.Job, error) {
	return s.transition(ctx, mechanicID, jobID,
		[]models.JobStatus{models.JobStatusEnRoute}, models.JobStatusInProgress, "sharing_stopped")
}

// transition applies a mechanic-driven move that needs no OTP.
func (s *jobService) transition(ctx context.Context, mechanicID, jobID primitive.ObjectID, from []models.JobStatus, to models.JobStatus, event string) (*models.Job, error) {
	moved, err := s.store.Jobs.Transition(ctx, interfaces.JobTransition{
		JobID:      jobID,
		From:       from,
		To:         to,
		MechanicID: &mechanicID,
		At:         s.clock(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move job to %s: %w", to, err)
	}

	job, err := s.store.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job")
	}
	if !job.IsAssignedTo(mechanicID) {
		return nil, NewNotFoundError("job")
	}
	if !moved {
		return nil, invalidTransition(fmt.Sprintf("Cannot move a %s job to %s", job.Status, to))
	}

	s.logger.WithContext(ctx).LogJobEvent(jobID, event, map[string]interface{}{
		"mechanic_id": mechanicID.Hex(),
		"status":      string(to),
	})

	return job, nil
}

// OTP gated operations
func (s *jobService) Start(ctx context.Context, mechanicID, requestID primitive.ObjectID, otp string) (*models.Job, error) {
	return s.gatedTransition(ctx, mechanicID, requestID, otp, models.OTPActionStart,
		[]models.JobStatus{models.JobStatusScheduled, models.JobStatusEnRoute}, models.JobStatusInProgress)
}

func (s *jobService) Complete(ctx context.Context, mechanicID, requestID primitive.ObjectID, otp string) (*models.Job, error) {
	return s.gatedTransition(ctx, mechanicID, requestID, otp, models.OTPActionComplete,
		[]models.JobStatus{models.JobStatusInProgress}, models.JobStatusCompleted)
}

// gatedTransition verifies the OTP and applies the transition in one
// transaction, so a failed transition leaves the code unconsumed.
func (s *jobService) gatedTransition(ctx context.Context, mechanicID, requestID primitive.ObjectID, otp string, action models.OTPAction, from []models.JobStatus, to models.JobStatus) (*models.Job, error) {
	now := s.clock()
	var job *models.Job

	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.store.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "service request")
		}
		if !request.IsAssignedTo(mechanicID) {
			return NewNotFoundError("service request")
		}

		job, err = s.store.Jobs.GetByServiceRequest(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "job")
		}

		if err := s.otp.Verify(ctx, requestID, otp, action); err != nil {
			return err
		}

		moved, err := s.store.Jobs.Transition(ctx, interfaces.JobTransition{
			JobID:      job.ID,
			From:       from,
			To:         to,
			MechanicID: &mechanicID,
			At:         now,
		})
		if err != nil {
			return fmt.Errorf("failed to move job to %s: %w", to, err)
		}
		if !moved {
			return invalidTransition(fmt.Sprintf("Cannot move a %s job to %s", job.Status, to))
		}

		if to == models.JobStatusCompleted {
			completed, err := s.store.Requests.MarkCompleted(ctx, requestID, mechanicID, now)
			if err != nil {
				return fmt.Errorf("failed to complete request: %w", err)
			}
			if !completed {
				return invalidTransition("Request is not accepted")
			}
		}

		job, err = s.store.Jobs.GetByID(ctx, job.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogJobEvent(job.ID, string(to), map[string]interface{}{
		"service_request_id": requestID.Hex(),
		"mechanic_id":        mechanicID.Hex(),
	})

	return job, nil
}

func (s *jobService) requireRole(ctx context.Context, userID primitive.ObjectID, role models.Role, message string) error {
	ok, err := s.store.Users.ExistsWithRole(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("failed to check user role: %w", err)
	}
	if !ok {
		return NewUnauthorizedError(message)
	}
	return nil
}
