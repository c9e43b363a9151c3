package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type serviceRequestRepository struct {
	db *db
}

func (r *serviceRequestRepository) Create(ctx context.Context, request *models.ServiceRequest) error {
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}

	return r.db.write(ctx, func() (func(), error) {
		if _, exists := r.db.requests[request.ID]; exists {
			return nil, fmt.Errorf("service request: %w", interfaces.ErrDuplicateKey)
		}
		id := request.ID
		r.db.requests[id] = cloneRequest(request)
		return func() { delete(r.db.requests, id) }, nil
	})
}

func (r *serviceRequestRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.ServiceRequest, error) {
	var request *models.ServiceRequest
	r.db.read(func() {
		if stored, ok := r.db.requests[id]; ok {
			request = cloneRequest(stored)
		}
	})
	if request == nil {
		return nil, fmt.Errorf("service request: %w", interfaces.ErrNotFound)
	}
	return request, nil
}

func (r *serviceRequestRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.ServiceRequest, error) {
	var requests []*models.ServiceRequest
	r.db.read(func() {
		for _, id := range ids {
			if stored, ok := r.db.requests[id]; ok {
				requests = append(requests, cloneRequest(stored))
			}
		}
	})
	return requests, nil
}

func (r *serviceRequestRepository) AssignMechanic(ctx context.Context, id, mechanicID primitive.ObjectID, at time.Time) (bool, error) {
	return r.update(ctx, id,
		func(req *models.ServiceRequest) bool {
			return req.Status == models.RequestStatusPending && req.MechanicID == nil
		},
		func(req *models.ServiceRequest) {
			req.Status = models.RequestStatusAccepted
			req.MechanicID = cloneID(&mechanicID)
			req.UpdatedAt = at
		})
}

func (r *serviceRequestRepository) Decline(ctx context.Context, id, customerID primitive.ObjectID, at time.Time) (bool, error) {
	return r.update(ctx, id,
		func(req *models.ServiceRequest) bool {
			return req.CustomerID == customerID && req.Status == models.RequestStatusPending && req.MechanicID == nil
		},
		func(req *models.ServiceRequest) {
			req.Status = models.RequestStatusDeclined
			req.OTP = nil
			req.UpdatedAt = at
		})
}

func (r *serviceRequestRepository) MarkCompleted(ctx context.Context, id, mechanicID primitive.ObjectID, at time.Time) (bool, error) {
	return r.update(ctx, id,
		func(req *models.ServiceRequest) bool {
			return req.IsAssignedTo(mechanicID) && req.Status == models.RequestStatusAccepted
		},
		func(req *models.ServiceRequest) {
			req.Status = models.RequestStatusCompleted
			req.UpdatedAt = at
		})
}

func (r *serviceRequestRepository) SetOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPCode) error {
	matched, err := r.update(ctx, id,
		func(*models.ServiceRequest) bool { return true },
		func(req *models.ServiceRequest) {
			stored := *otp
			req.OTP = &stored
			req.UpdatedAt = otp.IssuedAt
		})
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("service request: %w", interfaces.ErrNotFound)
	}
	return nil
}

func (r *serviceRequestRepository) ClearOTP(ctx context.Context, id primitive.ObjectID, expected *models.OTPCode) (bool, error) {
	return r.update(ctx, id,
		func(req *models.ServiceRequest) bool {
			return req.OTP != nil &&
				req.OTP.Code == expected.Code &&
				req.OTP.Action == expected.Action &&
				req.OTP.IssuedAt.Equal(expected.IssuedAt)
		},
		func(req *models.ServiceRequest) {
			req.OTP = nil
		})
}

func (r *serviceRequestRepository) ListOpen(_ context.Context, limit int) ([]*models.ServiceRequest, error) {
	var requests []*models.ServiceRequest
	r.db.read(func() {
		for _, stored := range r.db.requests {
			if isOpen(stored) {
				requests = append(requests, cloneRequest(stored))
			}
		}
	})

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	if limit > 0 && len(requests) > limit {
		requests = requests[:limit]
	}
	return requests, nil
}

func (r *serviceRequestRepository) CountOpen(_ context.Context) (int64, error) {
	var count int64
	r.db.read(func() {
		for _, stored := range r.db.requests {
			if isOpen(stored) {
				count++
			}
		}
	})
	return count, nil
}

func isOpen(req *models.ServiceRequest) bool {
	return req.Status == models.RequestStatusPending && req.MechanicID == nil
}

// update applies mutate to the stored request when match accepts it.
func (r *serviceRequestRepository) update(ctx context.Context, id primitive.ObjectID, match func(*models.ServiceRequest) bool, mutate func(*models.ServiceRequest)) (bool, error) {
	var matched bool
	err := r.db.write(ctx, func() (func(), error) {
		stored, ok := r.db.requests[id]
		if !ok || !match(stored) {
			return nil, nil
		}
		matched = true
		previous := cloneRequest(stored)
		updated := cloneRequest(stored)
		mutate(updated)
		r.db.requests[id] = updated
		return func() { r.db.requests[id] = previous }, nil
	})
	return matched, err
}
