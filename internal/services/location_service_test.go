package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mechongo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func locationUpdate(lat, lon float64, jobID primitive.ObjectID) *models.LocationUpdate {
	hex := jobID.Hex()
	return &models.LocationUpdate{Latitude: &lat, Longitude: &lon, JobID: &hex}
}

func (e *testEnv) locationCount(t *testing.T, jobID primitive.ObjectID) int64 {
	t.Helper()
	count, err := e.store.Locations.CountForJob(context.Background(), jobID)
	require.NoError(t, err)
	return count
}

func TestPublishPersistsAndBroadcasts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	booking := env.accepted(t)
	_, err := env.jobs.BeginTravel(ctx, env.mechanic.ID, booking.Job.ID)
	require.NoError(t, err)

	topic := TopicForMechanic(env.mechanic.ID)
	env.broadcaster.On("Broadcast", mock.Anything, topic, mock.AnythingOfType("*models.LocationBroadcast")).
		Return(nil).Once()

	payload, err := env.locations.Publish(ctx, env.mechanic.ID, env.mechanic.ID, locationUpdate(12.97, 77.59, booking.Job.ID))
	require.NoError(t, err)
	assert.Equal(t, 12.97, payload.Latitude)
	assert.Equal(t, 77.59, payload.Longitude)
	assert.Equal(t, env.clock.Now().Format(time.RFC3339), payload.Timestamp)

	env.broadcaster.AssertExpectations(t)
	assert.Equal(t, int64(1), env.locationCount(t, booking.Job.ID))

	latest, err := env.locations.LatestForJob(ctx, env.customer.ID, booking.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.97, latest.Latitude)
	assert.Equal(t, env.mechanic.ID, latest.MechanicID)
}

func TestPublishRejectedForCompletedJob(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	booking := env.inProgress(t)

	code := env.issuedCode(t, booking.Request.ID, models.OTPActionComplete)
	_, err := env.jobs.Complete(ctx, env.mechanic.ID, booking.Request.ID, code)
	require.NoError(t, err)

	_, err = env.locations.Publish(ctx, env.mechanic.ID, env.mechanic.ID, locationUpdate(12.97, 77.59, booking.Job.ID))
	assert.ErrorIs(t, err, ErrNotAuthorizedForJob)

	env.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, env.locationCount(t, booking.Job.ID))
}

func TestPublishRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	booking := env.inProgress(t)
	mechanicID := env.mechanic.ID
	other := env.addUser(t, "carol", models.RoleMechanic)

	lat := 10.0
	badHex := "not-a-job"

	cases := []struct {
		name     string
		caller   primitive.ObjectID
		topic    primitive.ObjectID
		update   *models.LocationUpdate
		expected error
	}{
		{"missing job", mechanicID, mechanicID, &models.LocationUpdate{Latitude: &lat, Longitude: &lat}, ErrMissingFields},
		{"missing latitude", mechanicID, mechanicID, &models.LocationUpdate{Longitude: &lat, JobID: &badHex}, ErrMissingFields},
		{"nil frame", mechanicID, mechanicID, nil, ErrMissingFields},
		{"anonymous caller", primitive.NilObjectID, mechanicID, locationUpdate(1, 1, booking.Job.ID), ErrNotAuthorizedForJob},
		{"foreign topic", other.ID, mechanicID, locationUpdate(1, 1, booking.Job.ID), ErrNotAuthorizedForJob},
		{"job of another mechanic", other.ID, other.ID, locationUpdate(1, 1, booking.Job.ID), ErrNotAuthorizedForJob},
		{"malformed job id", mechanicID, mechanicID, &models.LocationUpdate{Latitude: &lat, Longitude: &lat, JobID: &badHex}, ErrNotAuthorizedForJob},
		{"unknown job", mechanicID, mechanicID, locationUpdate(1, 1, primitive.NewObjectID()), ErrNotAuthorizedForJob},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.locations.Publish(ctx, tc.caller, tc.topic, tc.update)
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	_, err := env.locations.Publish(ctx, mechanicID, mechanicID, locationUpdate(91, 0, booking.Job.ID))
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, se.Kind)
	assert.Contains(t, se.Details, "latitude")

	_, err = env.locations.Publish(ctx, mechanicID, mechanicID, locationUpdate(0, -180.5, booking.Job.ID))
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Contains(t, se.Details, "longitude")

	env.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, env.locationCount(t, booking.Job.ID))
}

func TestPublishKeepsSampleWhenBroadcastFails(t *testing.T) {
	env := newTestEnv(t, nil)
	booking := env.inProgress(t)

	env.broadcaster.On("Broadcast", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	_, err := env.locations.Publish(context.Background(), env.mechanic.ID, env.mechanic.ID, locationUpdate(1, 2, booking.Job.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.locationCount(t, booking.Job.ID))
}

func TestLatestForJobVisibility(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	booking := env.inProgress(t)

	_, err := env.locations.LatestForJob(ctx, env.mechanic.ID, booking.Job.ID)
	assert.ErrorIs(t, err, NewNotFoundError("location"))

	stranger := env.addUser(t, "dave", models.RoleCustomer)
	_, err = env.locations.LatestForJob(ctx, stranger.ID, booking.Job.ID)
	assert.ErrorIs(t, err, NewNotFoundError("job"))
}

func TestMechanicExists(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	ok, err := env.locations.MechanicExists(ctx, env.mechanic.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.locations.MechanicExists(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
