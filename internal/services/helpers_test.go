package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"mechongo/internal/config"
	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/repositories/memory"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, topic string, payload interface{}) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyOTP(ctx context.Context, phone, code string, action models.OTPAction, vehicle string) error {
	args := m.Called(ctx, phone, code, action, vehicle)
	return args.Error(0)
}

type testEnv struct {
	store       *interfaces.Store
	clock       *testClock
	broadcaster *mockBroadcaster

	otp       OTPService
	jobs      JobService
	locations LocationService
	dashboard DashboardService
	billing   BillingService

	customer *models.User
	mechanic *models.User
}

func testLifecycle() *config.LifecycleConfig {
	return &config.LifecycleConfig{
		JobWindow:         2 * time.Hour,
		InvoiceDueAfter:   7 * 24 * time.Hour,
		OpenRequestsLimit: 50,
		HistoryPageSize:   20,
	}
}

func newTestEnv(t *testing.T, notifier OTPNotifier) *testEnv {
	t.Helper()

	store := memory.NewStore()
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	log := logger.NewNop()
	broadcaster := &mockBroadcaster{}

	otp := NewOTPService(store, notifier, 5*time.Minute, clock.Now, log)
	env := &testEnv{
		store:       store,
		clock:       clock,
		broadcaster: broadcaster,
		otp:         otp,
		jobs:        NewJobService(store, otp, testLifecycle(), clock.Now, log),
		locations:   NewLocationService(store, broadcaster, clock.Now, log),
		dashboard:   NewDashboardService(store, otp, testLifecycle(), time.UTC, clock.Now, log),
		billing:     NewBillingService(store, clock.Now, log),
	}
	env.customer = env.addUser(t, "alice", models.RoleCustomer)
	env.mechanic = env.addUser(t, "bob", models.RoleMechanic)
	return env
}

func (e *testEnv) addUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Role:      role,
		CreatedAt: e.clock.Now(),
		UpdatedAt: e.clock.Now(),
	}
	require.NoError(t, e.store.Users.Create(context.Background(), user))
	return user
}

func (e *testEnv) bookingRequest() *models.BookingRequest {
	cost := 120.0
	return &models.BookingRequest{
		IssueDescription: "Engine makes a knocking noise",
		Vehicle: models.VehicleInput{
			Type:   "car",
			Make:   "Toyota",
			Model:  "Camry",
			Year:   2020,
			Number: "KA01AB1234",
		},
		PreferredDatetime: e.clock.Now().Add(24 * time.Hour),
		EstimatedCost:     &cost,
		PhoneNumber:       "+91 9876543210",
		Location:          "12 MG Road, Bengaluru",
		PaymentMethod:     models.PaymentOptionCash,
	}
}

func (e *testEnv) book(t *testing.T) *models.BookingResult {
	t.Helper()
	result, err := e.jobs.Book(context.Background(), e.customer.ID, e.bookingRequest())
	require.NoError(t, err)
	return result
}

// accepted books a request and has the mechanic accept it.
func (e *testEnv) accepted(t *testing.T) *models.BookingResult {
	t.Helper()
	result := e.book(t)
	_, err := e.jobs.Accept(context.Background(), e.mechanic.ID, result.Request.ID)
	require.NoError(t, err)
	return result
}

// issuedCode issues a code and reads it back through the customer view.
func (e *testEnv) issuedCode(t *testing.T, requestID primitive.ObjectID, action models.OTPAction) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.otp.Issue(ctx, e.mechanic.ID, requestID, action))
	display, err := e.otp.Display(ctx, e.customer.ID, requestID)
	require.NoError(t, err)
	require.Equal(t, action, display.Action)
	return display.Code
}

// inProgress returns a booking whose job the mechanic has started.
func (e *testEnv) inProgress(t *testing.T) *models.BookingResult {
	t.Helper()
	result := e.accepted(t)
	code := e.issuedCode(t, result.Request.ID, models.OTPActionStart)
	_, err := e.jobs.Start(context.Background(), e.mechanic.ID, result.Request.ID, code)
	require.NoError(t, err)
	return result
}

func (e *testEnv) job(t *testing.T, id primitive.ObjectID) *models.Job {
	t.Helper()
	job, err := e.store.Jobs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return job
}

func (e *testEnv) request(t *testing.T, id primitive.ObjectID) *models.ServiceRequest {
	t.Helper()
	request, err := e.store.Requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	return request
}

// assertRequestInvariant checks that mechanic_id is nil exactly while the
// request is pending or declined.
func assertRequestInvariant(t *testing.T, request *models.ServiceRequest) {
	t.Helper()
	unassigned := request.Status == models.RequestStatusPending || request.Status == models.RequestStatusDeclined
	require.Equal(t, unassigned, request.MechanicID == nil, "status %s with mechanic %v", request.Status, request.MechanicID)
}

func pageOne() *utils.PaginationParams {
	return &utils.PaginationParams{Page: 1, PageSize: 20}
}
