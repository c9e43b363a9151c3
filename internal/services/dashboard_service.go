package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"mechongo/internal/config"
	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DashboardService interface {
	CustomerDashboard(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerDashboard, error)
	MechanicDashboard(ctx context.Context, mechanicID primitive.ObjectID) (*models.MechanicDashboard, error)

	// Tracking lists the caller's trackable jobs. Customers also get the
	// live OTP of each job.
	Tracking(ctx context.Context, callerID primitive.ObjectID, role models.Role) ([]*models.JobDetails, error)
	OrderHistory(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JobDetails, int64, error)
	BookingDetail(ctx context.Context, customerID, requestID primitive.ObjectID) (*models.JobDetails, error)
}

type dashboardService struct {
	requests  interfaces.ServiceRequestRepository
	jobs      interfaces.JobRepository
	otp       OTPService
	lifecycle *config.LifecycleConfig
	location  *time.Location
	clock     Clock
	logger    *logger.Logger
}

func NewDashboardService(store *interfaces.Store, otp OTPService, lifecycle *config.LifecycleConfig, location *time.Location, clock Clock, log *logger.Logger) DashboardService {
	if location == nil {
		location = time.Local
	}
	return &dashboardService{
		requests:  store.Requests,
		jobs:      store.Jobs,
		otp:       otp,
		lifecycle: lifecycle,
		location:  location,
		clock:     clockOrDefault(clock),
		logger:    log,
	}
}

func (s *dashboardService) CustomerDashboard(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerDashboard, error) {
	now := s.clock()

	active, err := s.jobs.List(ctx, interfaces.JobQuery{
		CustomerID: &customerID,
		Statuses:   models.ActiveBookingStatuses,
		Sort:       interfaces.JobSortStartTimeAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}

	completedQuery := interfaces.JobQuery{
		CustomerID: &customerID,
		Statuses:   []models.JobStatus{models.JobStatusCompleted},
	}
	completed, err := s.jobs.Count(ctx, completedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	average, err := s.jobs.AverageRating(ctx, completedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}

	var next *time.Time
	for _, job := range active {
		if !job.Status.In(models.JobStatusPending, models.JobStatusScheduled) || job.StartTime.Before(now) {
			continue
		}
		if next == nil || job.StartTime.Before(*next) {
			start := job.StartTime
			next = &start
		}
	}

	details, err := s.withRequests(ctx, active, true)
	if err != nil {
		return nil, err
	}

	return &models.CustomerDashboard{
		ActiveBookings:  len(active),
		CompletedCount:  completed,
		AverageRating:   roundRating(average),
		NextAppointment: next,
		CurrentBookings: details,
	}, nil
}

func (s *dashboardService) MechanicDashboard(ctx context.Context, mechanicID primitive.ObjectID) (*models.MechanicDashboard, error) {
	open, err := s.requests.ListOpen(ctx, s.lifecycle.OpenRequestsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	openCount, err := s.requests.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count open requests: %w", err)
	}

	active, err := s.jobs.List(ctx, interfaces.JobQuery{
		MechanicID: &mechanicID,
		Statuses:   models.TrackableJobStatuses,
		Sort:       interfaces.JobSortStartTimeAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}

	completedQuery := interfaces.JobQuery{
		MechanicID: &mechanicID,
		Statuses:   []models.JobStatus{models.JobStatusCompleted},
	}
	completed, err := s.jobs.Count(ctx, completedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	average, err := s.jobs.AverageRating(ctx, completedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}

	dayStart, dayEnd := utils.DayBounds(s.clock(), s.location)
	today, err := s.jobs.Count(ctx, interfaces.JobQuery{
		MechanicID:   &mechanicID,
		Statuses:     models.TrackableJobStatuses,
		StartingFrom: &dayStart,
		StartingTo:   &dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count today's jobs: %w", err)
	}

	details, err := s.withRequests(ctx, active, false)
	if err != nil {
		return nil, err
	}

	if open == nil {
		open = []*models.ServiceRequest{}
	}

	return &models.MechanicDashboard{
		OpenRequests:      open,
		OpenRequestCount:  openCount,
		ActiveJobs:        details,
		CompletedCount:    completed,
		AverageRating:     roundRating(average),
		TodayAppointments: today,
	}, nil
}

func (s *dashboardService) Tracking(ctx context.Context, callerID primitive.ObjectID, role models.Role) ([]*models.JobDetails, error) {
	query := interfaces.JobQuery{
		Statuses: models.TrackableJobStatuses,
		Sort:     interfaces.JobSortStartTimeAsc,
	}
	switch role {
	case models.RoleCustomer:
		query.CustomerID = &callerID
	case models.RoleMechanic:
		query.MechanicID = &callerID
	default:
		return nil, NewUnauthorizedError("Only customers and mechanics can track jobs")
	}

	jobs, err := s.jobs.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked jobs: %w", err)
	}

	return s.withRequests(ctx, jobs, role == models.RoleCustomer)
}

func (s *dashboardService) OrderHistory(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JobDetails, int64, error) {
	query := interfaces.JobQuery{
		CustomerID: &customerID,
		Statuses:   []models.JobStatus{models.JobStatusCompleted},
		Sort:       interfaces.JobSortCompletedAtDesc,
		Skip:       params.GetSkip(),
		Limit:      params.GetLimit(),
	}

	jobs, err := s.jobs.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	total, err := s.jobs.Count(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	details, err := s.withRequests(ctx, jobs, false)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (s *dashboardService) BookingDetail(ctx context.Context, customerID, requestID primitive.ObjectID) (*models.JobDetails, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, "service request")
	}
	if request.CustomerID != customerID {
		return nil, NewNotFoundError("service request")
	}

	job, err := s.jobs.GetByServiceRequest(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, "job")
	}

	return &models.JobDetails{
		Job:     job,
		Request: request,
		OTP:     s.otp.DisplayFor(request),
	}, nil
}

// withRequests pairs each job with its service request, preserving order.
func (s *dashboardService) withRequests(ctx context.Context, jobs []*models.Job, withOTP bool) ([]*models.JobDetails, error) {
	details := make([]*models.JobDetails, 0, len(jobs))
	if len(jobs) == 0 {
		return details, nil
	}

	ids := make([]primitive.ObjectID, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ServiceRequestID)
	}

	requests, err := s.requests.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load service requests: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.ServiceRequest, len(requests))
	for _, request := range requests {
		byID[request.ID] = request
	}

	for _, job := range jobs {
		request := byID[job.ServiceRequestID]
		entry := &models.JobDetails{Job: job, Request: request}
		if withOTP {
			entry.OTP = s.otp.DisplayFor(request)
		}
		details = append(details, entry)
	}
	return details, nil
}

func roundRating(value float64) float64 {
	return math.Round(value*10) / 10
}
