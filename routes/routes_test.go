package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mechongo/internal/config"
	"mechongo/internal/handlers/customer"
	"mechongo/internal/handlers/mechanic"
	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/repositories/memory"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"
	"mechongo/pkg/websocket"

	handlers "mechongo/internal/handlers/shared"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "routes-test-secret"

type fakeLimiter struct {
	mu    sync.Mutex
	allow bool
	keys  []string
}

func (f *fakeLimiter) AllowSlidingWindow(_ context.Context, key string, _ int, _ time.Duration, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.allow, nil
}

func (f *fakeLimiter) setAllow(allow bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allow = allow
}

func (f *fakeLimiter) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
	Meta   *utils.Meta     `json:"meta"`
}

type testServer struct {
	url     string
	store   *interfaces.Store
	hub     *websocket.Hub
	limiter *fakeLimiter

	customer *models.User
	mechanic *models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.NewNop()
	store := memory.NewStore()
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	cfg := &config.Config{
		App: &config.AppConfig{Version: "test"},
		Security: &config.SecurityConfig{
			JWTSecret:          testSecret,
			OTPIssueLimit:      3,
			OTPIssueWindow:     time.Minute,
			CORSAllowedOrigins: []string{"*"},
		},
		Lifecycle: &config.LifecycleConfig{
			JobWindow:         2 * time.Hour,
			InvoiceDueAfter:   7 * 24 * time.Hour,
			OpenRequestsLimit: 50,
			HistoryPageSize:   20,
		},
	}

	otpService := services.NewOTPService(store, nil, 5*time.Minute, nil, log)
	jobService := services.NewJobService(store, otpService, cfg.Lifecycle, nil, log)
	dashboardService := services.NewDashboardService(store, otpService, cfg.Lifecycle, time.UTC, nil, log)
	locationService := services.NewLocationService(store, hub, nil, log)
	billingService := services.NewBillingService(store, nil, log)

	sockets := websocket.NewHandler(hub, websocket.NewUpgrader(websocket.UpgraderConfig{AllowedOrigins: []string{"*"}}), websocket.DefaultOptions(), log)
	limiter := &fakeLimiter{allow: true}

	router := NewRouter(&Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: limiter,
		Bookings:    customer.NewBookingHandler(jobService, dashboardService, otpService, cfg.Lifecycle.HistoryPageSize, log),
		Billing:     customer.NewBillingHandler(billingService, log),
		Jobs:        mechanic.NewJobHandler(jobService, dashboardService, otpService, log),
		Tracking:    handlers.NewTrackingHandler(dashboardService, locationService, log),
		Locations:   handlers.NewLocationHandler(locationService, sockets, log),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ts := &testServer{url: server.URL, store: store, hub: hub, limiter: limiter}
	ts.customer = ts.addUser(t, "alice", models.RoleCustomer)
	ts.mechanic = ts.addUser(t, "bob", models.RoleMechanic)
	return ts
}

func (ts *testServer) addUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, ts.store.Users.Create(context.Background(), user))
	return user
}

func token(t *testing.T, user *models.User) string {
	t.Helper()
	signed, err := utils.GenerateToken(user.ID, string(user.Role), testSecret, time.Hour)
	require.NoError(t, err)
	return signed
}

// call performs a request as user (nil for anonymous) and decodes the
// response envelope.
func (ts *testServer) call(t *testing.T, user *models.User, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.url+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dst))
}

func bookingBody() map[string]interface{} {
	return map[string]interface{}{
		"issue_description": "Brakes squeal when stopping",
		"vehicle": map[string]interface{}{
			"type":   "car",
			"make":   "Honda",
			"model":  "City",
			"year":   2019,
			"number": "KA05MN4321",
		},
		"preferred_datetime": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"estimated_cost":     80,
		"phone_number":       "+91 9876543210",
		"location":           "4th Block, Jayanagar",
		"payment_method":     "cash",
	}
}

func (ts *testServer) book(t *testing.T) *models.BookingResult {
	t.Helper()
	status, env := ts.call(t, ts.customer, http.MethodPost, "/api/v1/customer/requests", bookingBody())
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	var result models.BookingResult
	decode(t, env.Data, &result)
	return &result
}

// otp issues a code as the mechanic and reads it back as the customer.
func (ts *testServer) otp(t *testing.T, requestID primitive.ObjectID, action models.OTPAction) string {
	t.Helper()
	status, env := ts.call(t, ts.mechanic, http.MethodPost, "/api/v1/mechanic/requests/"+requestID.Hex()+"/otp", gin.H{"action": action})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	status, env = ts.call(t, ts.customer, http.MethodGet, "/api/v1/customer/requests/"+requestID.Hex()+"/otp", nil)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	var display models.OTPDisplay
	decode(t, env.Data, &display)
	require.Equal(t, action, display.Action)
	return display.Code
}

func TestServiceLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	result := ts.book(t)
	requestPath := "/api/v1/mechanic/requests/" + result.Request.ID.Hex()

	status, env := ts.call(t, ts.mechanic, http.MethodPost, requestPath+"/accept", nil)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	code := ts.otp(t, result.Request.ID, models.OTPActionStart)
	status, env = ts.call(t, ts.mechanic, http.MethodPost, requestPath+"/start", gin.H{"otp": code})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	var job models.Job
	decode(t, env.Data, &job)
	assert.Equal(t, models.JobStatusInProgress, job.Status)

	code = ts.otp(t, result.Request.ID, models.OTPActionComplete)
	status, env = ts.call(t, ts.mechanic, http.MethodPost, requestPath+"/complete", gin.H{"otp": code})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	decode(t, env.Data, &job)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	status, env = ts.call(t, ts.customer, http.MethodPost, "/api/v1/customer/jobs/"+result.Job.ID.Hex()+"/rating", gin.H{"rating": 5, "comments": "Quick and tidy"})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	status, env = ts.call(t, ts.customer, http.MethodGet, "/api/v1/customer/history", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Meta)
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, int64(1), env.Meta.Pagination.Total)

	keys := ts.limiter.seen()
	require.Len(t, keys, 2)
	assert.Equal(t, utils.OTPIssueRateLimitKey+":"+ts.mechanic.ID.Hex(), keys[0])
}

func TestServiceErrorsKeepTheirCode(t *testing.T) {
	ts := newTestServer(t)
	result := ts.book(t)
	requestPath := "/api/v1/mechanic/requests/" + result.Request.ID.Hex()

	status, env := ts.call(t, ts.mechanic, http.MethodPost, requestPath+"/accept", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = ts.call(t, ts.mechanic, http.MethodPost, requestPath+"/start", gin.H{"otp": "12ab"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(services.CodeInvalidOTPFormat), env.Error.Code)

	status, env = ts.call(t, ts.mechanic, http.MethodPost, requestPath+"/start", gin.H{"otp": "123456"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(services.CodeNoOTPIssued), env.Error.Code)

	other := ts.addUser(t, "carol", models.RoleMechanic)
	status, env = ts.call(t, other, http.MethodPost, requestPath+"/accept", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(services.CodeAlreadyAssigned), env.Error.Code)

	status, _ = ts.call(t, ts.customer, http.MethodGet, "/api/v1/customer/requests/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = ts.call(t, ts.customer, http.MethodGet, "/api/v1/customer/requests/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, utils.ErrInvalidID, env.Error.Message)
}

func TestBookingValidation(t *testing.T) {
	ts := newTestServer(t)

	body := bookingBody()
	delete(body, "issue_description")
	body["payment_method"] = "barter"

	status, env := ts.call(t, ts.customer, http.MethodPost, "/api/v1/customer/requests", body)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, utils.CodeValidationError, env.Error.Code)
	assert.Contains(t, env.Error.Details, "issue_description")
	assert.Contains(t, env.Error.Details, "payment_method")
}

func TestRoutesEnforceRoles(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.call(t, nil, http.MethodGet, "/api/v1/customer/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.call(t, ts.customer, http.MethodGet, "/api/v1/mechanic/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.call(t, ts.mechanic, http.MethodGet, "/api/v1/customer/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.call(t, ts.mechanic, http.MethodGet, "/api/v1/tracking", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestOTPIssueIsRateLimited(t *testing.T) {
	ts := newTestServer(t)
	result := ts.book(t)
	status, _ := ts.call(t, ts.mechanic, http.MethodPost, "/api/v1/mechanic/requests/"+result.Request.ID.Hex()+"/accept", nil)
	require.Equal(t, http.StatusOK, status)

	ts.limiter.setAllow(false)
	status, env := ts.call(t, ts.mechanic, http.MethodPost, "/api/v1/mechanic/requests/"+result.Request.ID.Hex()+"/otp", gin.H{"action": "start"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, utils.CodeRateLimited, env.Error.Code)
}

func TestPaymentMethodAndInvoice(t *testing.T) {
	ts := newTestServer(t)
	result := ts.book(t)

	status, env := ts.call(t, ts.customer, http.MethodPost, "/api/v1/customer/payment-methods", gin.H{
		"method_type": "upi",
		"upi_id":      "alice@okbank",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	var method models.PaymentMethod
	decode(t, env.Data, &method)

	status, env = ts.call(t, ts.customer, http.MethodPost, "/api/v1/customer/invoices/"+result.Invoice.ID.Hex()+"/pay", gin.H{
		"payment_method_id": method.ID.Hex(),
	})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	var invoice models.Invoice
	decode(t, env.Data, &invoice)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func wsURL(t *testing.T, ts *testServer, mechanicID primitive.ObjectID, user *models.User) string {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.url, "http") + "/ws/mechanic/location/" + mechanicID.Hex()
	if user != nil {
		url += "?token=" + token(t, user)
	}
	return url
}

func readFrame(t *testing.T, conn *gorilla.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestLocationSocket(t *testing.T) {
	ts := newTestServer(t)
	result := ts.book(t)

	status, _ := ts.call(t, ts.mechanic, http.MethodPost, "/api/v1/mechanic/requests/"+result.Request.ID.Hex()+"/accept", nil)
	require.Equal(t, http.StatusOK, status)
	status, env := ts.call(t, ts.mechanic, http.MethodPost, "/api/v1/mechanic/jobs/"+result.Job.ID.Hex()+"/travel", nil)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	viewer, _, err := gorilla.DefaultDialer.Dial(wsURL(t, ts, ts.mechanic.ID, nil), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = viewer.Close() })

	publisher, _, err := gorilla.DefaultDialer.Dial(wsURL(t, ts, ts.mechanic.ID, ts.mechanic), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	topic := services.TopicForMechanic(ts.mechanic.ID)
	require.Eventually(t, func() bool { return ts.hub.Subscribers(topic) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, viewer.WriteMessage(gorilla.TextMessage, []byte("not json")))
	assert.Equal(t, "Invalid message format", readFrame(t, viewer)["error"])

	require.NoError(t, publisher.WriteJSON(gin.H{"latitude": 12.9, "longitude": 77.6, "job_id": 42}))
	assert.Equal(t, "Invalid message format", readFrame(t, publisher)["error"])

	jobID := result.Job.ID.Hex()
	require.NoError(t, viewer.WriteJSON(gin.H{"latitude": 12.9, "longitude": 77.6, "job_id": jobID}))
	assert.Equal(t, services.ErrNotAuthorizedForJob.Message, readFrame(t, viewer)["error"])

	require.NoError(t, publisher.WriteJSON(gin.H{"latitude": 12.9716, "longitude": 77.5946, "job_id": jobID}))
	frame := readFrame(t, viewer)
	assert.Equal(t, 12.9716, frame["latitude"])
	assert.Equal(t, 77.5946, frame["longitude"])
	assert.NotEmpty(t, frame["timestamp"])

	status, env = ts.call(t, ts.customer, http.MethodGet, "/api/v1/jobs/"+jobID+"/location", nil)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var location models.MechanicLocation
	decode(t, env.Data, &location)
	assert.Equal(t, 12.9716, location.Latitude)
}

func TestLocationSocketRejectsUnknownMechanic(t *testing.T) {
	ts := newTestServer(t)

	for _, id := range []string{primitive.NewObjectID().Hex(), ts.customer.ID.Hex(), "nope"} {
		resp, err := http.Get(ts.url + "/ws/mechanic/location/" + id)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
	}
}
