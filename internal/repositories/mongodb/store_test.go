package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/pkg/database"
	"mechongo/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// newTestStore connects to MONGODB_URI, which must point at a replica set
// so transactions are available. Each test gets its own database.
func newTestStore(t *testing.T) *interfaces.Store {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	db, err := database.ConnectMongo(context.Background(), database.MongoOptions{
		URI:            uri,
		Database:       "mechongo_test_" + primitive.NewObjectID().Hex(),
		MaxPoolSize:    10,
		ConnectTimeout: 5 * time.Second,
		SocketTimeout:  10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Database.Drop(context.Background())
		_ = db.Close(context.Background())
	})

	require.NoError(t, database.NewMigrator(db.Database, logger.NewNop()).Up(context.Background()))
	return NewStore(db)
}

func seedPair(t *testing.T, store *interfaces.Store) (*models.ServiceRequest, *models.Job) {
	t.Helper()
	ctx := context.Background()

	request := &models.ServiceRequest{
		CustomerID: primitive.NewObjectID(),
		Status:     models.RequestStatusPending,
		CreatedAt:  baseTime,
	}
	require.NoError(t, store.Requests.Create(ctx, request))

	job := &models.Job{
		ServiceRequestID: request.ID,
		CustomerID:       request.CustomerID,
		Status:           models.JobStatusPending,
		StartTime:        baseTime.Add(time.Hour),
		CreatedAt:        baseTime,
	}
	require.NoError(t, store.Jobs.Create(ctx, job))

	return request, job
}

func TestMongoTransactionRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	request, job := seedPair(t, store)
	mechanic := primitive.NewObjectID()
	boom := errors.New("boom")

	err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := store.Requests.AssignMechanic(ctx, request.ID, mechanic, baseTime)
		if err != nil || !ok {
			return errors.New("assign failed")
		}
		ok, err = store.Jobs.Schedule(ctx, request.ID, mechanic, baseTime)
		if err != nil || !ok {
			return errors.New("schedule failed")
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	gotRequest, err := store.Requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, gotRequest.Status)
	assert.Nil(t, gotRequest.MechanicID)

	gotJob, err := store.Jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, gotJob.Status)
}

func TestMongoAssignMechanicIsConditional(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	request, _ := seedPair(t, store)

	ok, err := store.Requests.AssignMechanic(ctx, request.ID, primitive.NewObjectID(), baseTime)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Requests.AssignMechanic(ctx, request.ID, primitive.NewObjectID(), baseTime)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMongoClearOTPRequiresSameCode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	request, _ := seedPair(t, store)

	first := &models.OTPCode{Code: "111111", Action: models.OTPActionStart, IssuedAt: baseTime}
	second := &models.OTPCode{Code: "222222", Action: models.OTPActionStart, IssuedAt: baseTime.Add(time.Second)}
	require.NoError(t, store.Requests.SetOTP(ctx, request.ID, first))
	require.NoError(t, store.Requests.SetOTP(ctx, request.ID, second))

	ok, err := store.Requests.ClearOTP(ctx, request.ID, first)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Requests.ClearOTP(ctx, request.ID, second)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OTP)
}

func TestMongoJobQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	customer := primitive.NewObjectID()

	for i, status := range []models.JobStatus{models.JobStatusScheduled, models.JobStatusCompleted, models.JobStatusCompleted} {
		job := &models.Job{
			ServiceRequestID: primitive.NewObjectID(),
			CustomerID:       customer,
			Status:           status,
			StartTime:        baseTime.Add(time.Duration(i) * time.Hour),
		}
		if status == models.JobStatusCompleted {
			done := baseTime.Add(time.Duration(i) * time.Hour)
			rating := 3 + i
			job.CompletedAt = &done
			job.Rating = &rating
		}
		require.NoError(t, store.Jobs.Create(ctx, job))
	}

	jobs, err := store.Jobs.List(ctx, interfaces.JobQuery{
		CustomerID: &customer,
		Statuses:   []models.JobStatus{models.JobStatusCompleted},
		Sort:       interfaces.JobSortCompletedAtDesc,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.True(t, jobs[0].CompletedAt.After(*jobs[1].CompletedAt))

	avg, err := store.Jobs.AverageRating(ctx, interfaces.JobQuery{CustomerID: &customer})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)
}

func TestMongoDuplicateInvoiceNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Invoices.Create(ctx, &models.Invoice{InvoiceNumber: "INV-20260314-ABCD"}))
	err := store.Invoices.Create(ctx, &models.Invoice{InvoiceNumber: "INV-20260314-ABCD"})
	assert.ErrorIs(t, err, interfaces.ErrDuplicateKey)
}

func TestMongoLatestLocation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	jobID := primitive.NewObjectID()

	_, err := store.Locations.GetLatestForJob(ctx, jobID)
	require.ErrorIs(t, err, interfaces.ErrNotFound)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Locations.Create(ctx, &models.MechanicLocation{
			MechanicID: primitive.NewObjectID(),
			JobID:      jobID,
			Latitude:   12.0 + float64(i),
			Longitude:  77.0,
			Timestamp:  baseTime.Add(time.Duration(i) * time.Second),
		}))
	}

	latest, err := store.Locations.GetLatestForJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 14.0, latest.Latitude)

	count, err := store.Locations.CountForJob(ctx, jobID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
